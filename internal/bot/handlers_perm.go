package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/mcstatus-bot/internal/storage"
)

// handlePerm grants or revokes one role rule, or resets every rule of the
// guild. The owner/administrator check already ran in the dispatcher.
func (b *Bot) handlePerm(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)

	if opt, ok := opts["reset"]; ok && opt.BoolValue() {
		removed, err := b.repo.ResetPermissions(ctx, i.GuildID)
		if err != nil {
			slog.Error("Failed to reset permissions", "guildID", i.GuildID, "error", err)
			respondEphemeral(s, i, "❌ Failed to reset permissions.")
			return
		}
		slog.Info("Permissions reset", "guildID", i.GuildID, "removed", removed)
		respondEphemeral(s, i, "♻️ All permissions have been reset.")
		return
	}

	roleOpt, hasRole := opts["role"]
	permOpt, hasPerm := opts["permission"]
	toggleOpt, hasToggle := opts["toggle"]
	if !hasRole || !hasPerm || !hasToggle {
		respondEphemeral(s, i, "⚠️ Missing arguments. Use `reset: true` to reset all.")
		return
	}

	roleID := roleOpt.RoleValue(nil, "").ID
	command := permOpt.StringValue()

	if _, err := b.registry.Get(command); err != nil {
		respondEphemeral(s, i, fmt.Sprintf("⚠️ Unknown command `/%s`.", command))
		return
	}

	var (
		err   error
		reply string
	)
	switch toggleOpt.StringValue() {
	case "allow":
		err = b.repo.GrantPermission(ctx, i.GuildID, command, roleID)
		reply = fmt.Sprintf("✅ Allowed <@&%s> to use `/%s`.", roleID, command)
	default:
		err = b.repo.RevokePermission(ctx, i.GuildID, command, roleID)
		reply = fmt.Sprintf("⛔ Denied <@&%s> from using `/%s`.", roleID, command)
	}
	if err != nil {
		slog.Error("Failed to update permission", "guildID", i.GuildID, "command", command, "roleID", roleID, "error", err)
		respondEphemeral(s, i, "❌ Database error.")
		return
	}

	slog.Info("Permission updated", "guildID", i.GuildID, "command", command, "roleID", roleID, "toggle", toggleOpt.StringValue())
	respondEphemeral(s, i, reply)
}

func (b *Bot) handlePermList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	rules, err := b.repo.ListPermissions(ctx, i.GuildID)
	if err != nil {
		slog.Error("Failed to list permissions", "guildID", i.GuildID, "error", err)
		respondEphemeral(s, i, "❌ Database error.")
		return
	}
	respondEphemeral(s, i, formatPermissions(rules))
}

func formatPermissions(rules []*storage.PermissionRule) string {
	if len(rules) == 0 {
		return "ℹ️ No permissions set."
	}

	var sb strings.Builder
	sb.WriteString("📋 **Permissions:**")
	for _, r := range rules {
		fmt.Fprintf(&sb, "\n• `%s`: <@&%s>", r.CommandName, r.RoleID)
	}
	return sb.String()
}
