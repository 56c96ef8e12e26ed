package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/mcstatus-bot/internal/storage"
)

// maxListedWarnings caps the warnings command so the embed stays readable
const maxListedWarnings = 10

// handleWarn records a warning, DMs the warned user and mirrors the notice
// to the guild's status channel
func (b *Bot) handleWarn(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	userOpt, hasUser := opts["user"]
	reasonOpt, hasReason := opts["reason"]
	if !hasUser || !hasReason {
		respondEphemeral(s, i, "⚠️ Missing arguments.")
		return
	}

	userID := userOpt.UserValue(nil).ID
	reason := reasonOpt.StringValue()
	moderatorID := interactionUserID(i)

	if s.State.User != nil && userID == s.State.User.ID {
		respondEphemeral(s, i, "❌ I cannot warn myself!")
		return
	}
	if userID == moderatorID {
		respondEphemeral(s, i, "❌ You cannot warn yourself!")
		return
	}

	warning := &storage.Warning{
		GuildID:     i.GuildID,
		UserID:      userID,
		Reason:      reason,
		ModeratorID: moderatorID,
	}
	if err := b.repo.CreateWarning(ctx, warning); err != nil {
		slog.Error("Failed to save warning", "guildID", i.GuildID, "userID", userID, "error", err)
		respondEphemeral(s, i, "❌ Failed to save warning.")
		return
	}

	slog.Info("User warned", "guildID", i.GuildID, "userID", userID, "moderatorID", moderatorID, "warningID", warning.ID)

	b.notifyWarned(ctx, s, userID, guildName(s, i.GuildID), reason)

	embed := warningEmbed(warning)
	respondEmbed(s, i, embed, true)

	if binding, ok := b.table.Get(i.GuildID); ok {
		if _, err := s.ChannelMessageSendEmbed(binding.ChannelID, embed, discordgo.WithContext(ctx)); err != nil {
			slog.Error("Failed to send warning to status channel", "guildID", i.GuildID, "channelID", binding.ChannelID, "error", err)
		}
	}
}

// notifyWarned DMs the warned user. Users with closed DMs are common, so a
// failure is only logged.
func (b *Bot) notifyWarned(ctx context.Context, s *discordgo.Session, userID, guild, reason string) {
	dm, err := s.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err == nil {
		_, err = s.ChannelMessageSendEmbed(dm.ID, &discordgo.MessageEmbed{
			Title: "⚠️ You Have Been Warned",
			Description: fmt.Sprintf("**Server:** %s\n**Reason:** %s\nPlease follow the server rules to avoid further actions.",
				guild, reason),
			Color:     colorOrange,
			Timestamp: time.Now().Format(time.RFC3339),
		}, discordgo.WithContext(ctx))
	}
	if err != nil {
		slog.Warn("Could not DM warned user", "userID", userID, "error", err)
	}
}

func (b *Bot) handleWarnings(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opt, ok := optionMap(i)["user"]
	if !ok {
		respondEphemeral(s, i, "⚠️ Missing arguments.")
		return
	}
	userID := opt.UserValue(nil).ID

	warnings, err := b.repo.GetWarnings(ctx, i.GuildID, userID)
	if err != nil {
		slog.Error("Failed to list warnings", "guildID", i.GuildID, "userID", userID, "error", err)
		respondEphemeral(s, i, "❌ Database error.")
		return
	}
	if len(warnings) == 0 {
		respondEphemeral(s, i, fmt.Sprintf("ℹ️ <@%s> has no warnings.", userID))
		return
	}
	respondEmbed(s, i, warningsEmbed(userID, warnings), true)
}

func warningEmbed(w *storage.Warning) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⚠️ User Warned",
		Description: fmt.Sprintf("**User:** <@%s>\n**Reason:** %s\n**Moderator:** <@%s>", w.UserID, w.Reason, w.ModeratorID),
		Color:       colorOrange,
		Timestamp:   w.CreatedAt.Format(time.RFC3339),
	}
}

// warningsEmbed lists the newest warnings first, as returned by the store
func warningsEmbed(userID string, warnings []*storage.Warning) *discordgo.MessageEmbed {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**User:** <@%s>\n", userID)
	for n, w := range warnings {
		if n == maxListedWarnings {
			break
		}
		fmt.Fprintf(&sb, "\n`#%d` <t:%d:R> by <@%s>\n%s\n", w.ID, w.CreatedAt.Unix(), w.ModeratorID, w.Reason)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("📋 Warnings (%d)", len(warnings)),
		Description: sb.String(),
		Color:       colorOrange,
	}
	if len(warnings) > maxListedWarnings {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Showing the latest %d of %d", maxListedWarnings, len(warnings)),
		}
	}
	return embed
}

// interactionUserID returns the invoking user in guilds and DMs alike
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func guildName(s *discordgo.Session, guildID string) string {
	if g, err := s.State.Guild(guildID); err == nil && g.Name != "" {
		return g.Name
	}
	return guildID
}
