package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Notice types of the msg command
const (
	noticeMaintenance = "maintenance"
	noticeServerStop  = "server_stop"
)

const (
	colorGreen  = 0x00FF00
	colorOrange = 0xFFA500
	colorRed    = 0xFF0000

	noticeThumbnail = "https://i.imgur.com/zlQwjWe.png"

	// Discord refuses to bulk delete messages older than two weeks
	bulkDeleteMaxAge = 14 * 24 * time.Hour
	bulkDeleteLimit  = 100
)

func (b *Bot) handleMsg(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)

	var kind, eta string
	if opt, ok := opts["type"]; ok {
		kind = opt.StringValue()
	}
	if opt, ok := opts["time"]; ok {
		eta = opt.StringValue()
	}

	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{noticeEmbed(kind, eta, time.Now())},
	}
	if b.config.InviteURL != "" {
		data.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label: "🔗 Join Discord for Updates",
						Style: discordgo.LinkButton,
						URL:   b.config.InviteURL,
					},
				},
			},
		}
	}
	respond(s, i, data)
}

func noticeEmbed(kind, eta string, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: noticeThumbnail},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Status Bot Notification • HeartlessMC"},
		Timestamp: now.Format(time.RFC3339),
	}

	if kind == noticeMaintenance {
		embed.Color = colorOrange
		embed.Title = "🚧 Scheduled Maintenance"
		embed.Description = fmt.Sprintf("🛠️ **The server is currently undergoing maintenance.**\n\n"+
			"Estimated time to complete: **%s**\nWe appreciate your patience and support.", eta)
		return embed
	}

	embed.Color = colorRed
	embed.Title = "🛑 Server Downtime Notice"
	embed.Description = fmt.Sprintf("❌ **The server has been stopped temporarily.**\n\n"+
		"Estimated downtime: **%s**\nWe'll notify everyone when it's back online.", eta)
	return embed
}

// handleDel bulk deletes the most recent messages of the channel
func (b *Bot) handleDel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.AppPermissions&discordgo.PermissionManageMessages == 0 {
		respondEphemeral(s, i, "❌ I need the Manage Messages permission.")
		return
	}

	deferResponse(s, i, true)

	messages, err := s.ChannelMessages(i.ChannelID, bulkDeleteLimit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		slog.Error("Failed to fetch messages", "channelID", i.ChannelID, "error", err)
		editResponse(s, i, "❌ Failed to fetch messages.")
		return
	}

	ids := bulkDeletable(messages, time.Now())
	if err := s.ChannelMessagesBulkDelete(i.ChannelID, ids, discordgo.WithContext(ctx)); err != nil {
		slog.Error("Failed to delete messages", "channelID", i.ChannelID, "count", len(ids), "error", err)
		editResponse(s, i, "❌ Failed to delete messages.")
		return
	}

	slog.Info("Messages deleted", "guildID", i.GuildID, "channelID", i.ChannelID, "count", len(ids))
	editResponse(s, i, "🗑️ Deleted messages.")
}

// bulkDeletable returns the IDs of the messages young enough to bulk delete
func bulkDeletable(messages []*discordgo.Message, now time.Time) []string {
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		created, err := discordgo.SnowflakeTimestamp(m.ID)
		if err != nil || now.Sub(created) >= bulkDeleteMaxAge {
			continue
		}
		ids = append(ids, m.ID)
	}
	return ids
}

func (b *Bot) handlePing(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	var botLatency time.Duration
	if created, err := discordgo.SnowflakeTimestamp(i.ID); err == nil {
		botLatency = time.Since(created)
	}

	// the probe can take up to its timeout, longer than Discord waits for a reply
	deferResponse(s, i, false)

	vps := "Unreachable"
	rtt, err := b.probe(ctx, b.config.PingHost)
	if err != nil {
		slog.Warn("Host probe failed", "host", b.config.PingHost, "error", err)
	} else {
		vps = fmt.Sprintf("%d ms", rtt.Milliseconds())
	}

	editResponseEmbed(s, i, pingEmbed(botLatency, s.HeartbeatLatency(), vps, time.Now()))
}

func pingEmbed(botLatency, apiLatency time.Duration, vps string, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🤖 Bot Latency", Value: fmt.Sprintf("%d ms", botLatency.Milliseconds()), Inline: true},
			{Name: "📡 API Latency", Value: fmt.Sprintf("%d ms", apiLatency.Milliseconds()), Inline: true},
			{Name: "🖥️ VPS Ping", Value: vps, Inline: true},
		},
		Timestamp: now.Format(time.RFC3339),
	}
}

func (b *Bot) handleTest(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondWithMessage(s, i, "✅ Test command is working!")
}
