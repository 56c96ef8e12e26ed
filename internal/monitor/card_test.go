package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flor3z/mcstatus-bot/internal/mcstatus"
)

func TestCardRenderer_Embed(t *testing.T) {
	r := NewCardRenderer(testHost, "https://discord.gg/example")
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	snap := snapshot(3, 20)
	snap.Icon = []byte("png")

	msg := r.NewMessage(snap)
	require.Len(t, msg.Embeds, 1)
	embed := msg.Embeds[0]

	assert.Equal(t, "🟢 play.example.net", embed.Title)
	assert.Equal(t, "Online", fieldValue(embed, "📊 Status"))
	assert.Equal(t, "3/20", fieldValue(embed, "👥 Players"))
	assert.Equal(t, "1.20.4", fieldValue(embed, "📦 Version"))
	assert.Equal(t, testHost, fieldValue(embed, "🌐 IP"))
	assert.Equal(t, "765", fieldValue(embed, "🔗 Protocol"))
	assert.Equal(t, "2026-01-02T03:04:05Z", embed.Timestamp)
	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "attachment://server-icon.png", embed.Thumbnail.URL)

	require.Len(t, msg.Files, 1)
	assert.Equal(t, "server-icon.png", msg.Files[0].Name)
	assert.Len(t, msg.Components, 1)
}

func TestCardRenderer_NoIconNoInvite(t *testing.T) {
	r := NewCardRenderer(testHost, "")

	msg := r.NewMessage(snapshot(0, 10))
	assert.Empty(t, msg.Files)
	assert.Empty(t, msg.Components)
	assert.Nil(t, msg.Embeds[0].Thumbnail)
}

func TestCardRenderer_TruncatesMOTD(t *testing.T) {
	r := NewCardRenderer(testHost, "")

	snap := snapshot(1, 2)
	long := make([]rune, 2000)
	for i := range long {
		long[i] = 'é'
	}
	snap.MOTD = string(long)

	motd := fieldValue(r.Embed(snap), "📜 MOTD")
	assert.Equal(t, 1024, len([]rune(motd)))
}

func TestCardRenderer_EditKeepsTarget(t *testing.T) {
	r := NewCardRenderer(testHost, "")

	edit := r.EditMessage("C", "m-1", &mcstatus.Snapshot{Name: "x", HasPlayers: true, PlayersOnline: 4, PlayersMax: 20})
	assert.Equal(t, "C", edit.Channel)
	assert.Equal(t, "m-1", edit.ID)
	assert.Equal(t, "4/20", fieldValue(editEmbed(edit), "👥 Players"))
}

func TestCardRenderer_EditUploadsCurrentIcon(t *testing.T) {
	r := NewCardRenderer(testHost, "")

	withIcon := snapshot(4, 20)
	withIcon.Icon = []byte("png")

	edit := r.EditMessage("C", "m-1", withIcon)
	require.Len(t, edit.Files, 1)
	assert.Equal(t, "server-icon.png", edit.Files[0].Name)
	require.NotNil(t, edit.Attachments)
	assert.Empty(t, *edit.Attachments)
	require.NotNil(t, editEmbed(edit).Thumbnail)
	assert.Equal(t, "attachment://server-icon.png", editEmbed(edit).Thumbnail.URL)
}

func TestCardRenderer_EditWithoutIconDropsThumbnail(t *testing.T) {
	r := NewCardRenderer(testHost, "")

	edit := r.EditMessage("C", "m-1", snapshot(4, 20))
	assert.Empty(t, edit.Files)
	require.NotNil(t, edit.Attachments)
	assert.Empty(t, *edit.Attachments)
	assert.Nil(t, editEmbed(edit).Thumbnail)
}

func TestCardRenderer_UnknownPlayers(t *testing.T) {
	r := NewCardRenderer(testHost, "")

	snap := snapshot(0, 0)
	snap.HasPlayers = false
	assert.Equal(t, mcstatus.Unknown, fieldValue(r.Embed(snap), "👥 Players"))
}
