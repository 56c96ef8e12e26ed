package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/mcstatus-bot/internal/monitor"
)

const replySetupFirst = "⚠️ Please run `/setup` first."

// handleSetup binds the guild to a status channel. A bound channel that still
// exists is reused, otherwise a new text channel is created.
func (b *Bot) handleSetup(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if existing, ok := b.table.Get(i.GuildID); ok {
		_, err := s.Channel(existing.ChannelID, discordgo.WithContext(ctx))
		switch {
		case err == nil:
			binding, _ := b.table.Bind(i.GuildID, existing.ChannelID)
			b.saveBinding(ctx, binding)
			respondEphemeral(s, i, fmt.Sprintf("✅ Status channel already set up: <#%s>", binding.ChannelID))
			return
		case !isNotFound(err):
			slog.Error("Failed to look up status channel", "guildID", i.GuildID, "channelID", existing.ChannelID, "error", err)
			respondEphemeral(s, i, "❌ Failed to check the status channel.")
			return
		}
		slog.Info("Status channel is gone, creating a new one", "guildID", i.GuildID, "channelID", existing.ChannelID)
	}

	channel, err := s.GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:  b.config.StatusChannelName,
		Type:  discordgo.ChannelTypeGuildText,
		Topic: "Minecraft Server Status Channel",
	}, discordgo.WithContext(ctx))
	if err != nil {
		slog.Error("Failed to create status channel", "guildID", i.GuildID, "error", err)
		respondEphemeral(s, i, "❌ Failed to create the status channel.")
		return
	}

	binding, _ := b.table.Bind(i.GuildID, channel.ID)
	b.saveBinding(ctx, binding)

	slog.Info("Status channel created", "guildID", i.GuildID, "channelID", channel.ID)
	respondEphemeral(s, i, fmt.Sprintf("✅ Status channel created: <#%s>", channel.ID))
}

func (b *Bot) handleStart(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.toggleMonitoring(ctx, s, i, true, "✅ Monitoring started.")
}

func (b *Bot) handleStop(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.toggleMonitoring(ctx, s, i, false, "⏸️ Monitoring stopped.")
}

func (b *Bot) toggleMonitoring(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, enabled bool, reply string) {
	binding, err := b.table.SetEnabled(i.GuildID, enabled)
	if errors.Is(err, monitor.ErrNotConfigured) {
		respondEphemeral(s, i, replySetupFirst)
		return
	}
	b.saveBinding(ctx, binding)

	slog.Info("Monitoring toggled", "guildID", i.GuildID, "enabled", enabled)
	respondEphemeral(s, i, reply)
}

// isNotFound reports whether a REST call failed because the resource is gone
func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownChannel {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
