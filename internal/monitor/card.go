package monitor

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/flor3z/mcstatus-bot/internal/mcstatus"
)

const (
	iconFileName  = "server-icon.png"
	motdMaxLength = 1024
	colorOnline   = 0x00FF00
)

// CardRenderer turns snapshots into Discord messages
type CardRenderer struct {
	host      string
	inviteURL string
	now       func() time.Time
}

// NewCardRenderer creates a renderer for host. The "Join Server" button is
// only added when inviteURL is set.
func NewCardRenderer(host, inviteURL string) *CardRenderer {
	return &CardRenderer{
		host:      host,
		inviteURL: inviteURL,
		now:       time.Now,
	}
}

// Embed builds the status card embed
func (r *CardRenderer) Embed(snap *mcstatus.Snapshot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🟢 " + snap.Name,
		Color: colorOnline,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📊 Status", Value: "Online", Inline: true},
			{Name: "👥 Players", Value: snap.Players(), Inline: true},
			{Name: "📦 Version", Value: snap.Version, Inline: true},
			{Name: "🌐 IP", Value: r.host},
			{Name: "📜 MOTD", Value: truncate(snap.MOTD, motdMaxLength)},
			{Name: "🔗 Protocol", Value: snap.Protocol},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Last Updated",
		},
		Timestamp: r.now().Format(time.RFC3339),
	}

	if snap.HasIcon() {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{
			URL: "attachment://" + iconFileName,
		}
	}

	return embed
}

// NewMessage builds a fresh status card, icon attachment and button included
func (r *CardRenderer) NewMessage(snap *mcstatus.Snapshot) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{r.Embed(snap)},
	}

	if snap.HasIcon() {
		msg.Files = []*discordgo.File{iconFile(snap)}
	}

	if r.inviteURL != "" {
		msg.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label: "🌐 Join Server",
						Style: discordgo.LinkButton,
						URL:   r.inviteURL,
					},
				},
			},
		}
	}

	return msg
}

// EditMessage rewrites the embed of an existing card and replaces its
// attachments with the current icon, so the thumbnail never points at a
// file the card does not carry. The button is left in place.
func (r *CardRenderer) EditMessage(channelID, messageID string, snap *mcstatus.Snapshot) *discordgo.MessageEdit {
	edit := discordgo.NewMessageEdit(channelID, messageID).
		SetEmbeds([]*discordgo.MessageEmbed{r.Embed(snap)})

	// an empty list drops the previously uploaded icon
	edit.Attachments = &[]*discordgo.MessageAttachment{}
	if snap.HasIcon() {
		edit.Files = []*discordgo.File{iconFile(snap)}
	}
	return edit
}

func iconFile(snap *mcstatus.Snapshot) *discordgo.File {
	return &discordgo.File{
		Name:        iconFileName,
		ContentType: "image/png",
		Reader:      bytes.NewReader(snap.Icon),
	}
}

// OfflineNotice is the plain text sent when the server cannot be reached
func (r *CardRenderer) OfflineNotice() string {
	return fmt.Sprintf("❌ Server %s is offline.", r.host)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
