package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_BindIsCreateOrReuse(t *testing.T) {
	table := NewTable()

	b, changed := table.Bind("g1", "c1")
	assert.True(t, changed)
	assert.True(t, b.Enabled)

	_, err := table.SetEnabled("g1", false)
	require.NoError(t, err)

	b, changed = table.Bind("g1", "c1")
	assert.False(t, changed)
	assert.True(t, b.Enabled, "setup re-enables monitoring")

	b, changed = table.Bind("g1", "c2")
	assert.True(t, changed)
	assert.Equal(t, "c2", b.ChannelID)
}

func TestTable_SetEnabledRequiresBinding(t *testing.T) {
	table := NewTable()

	_, err := table.SetEnabled("g1", true)
	assert.ErrorIs(t, err, ErrNotConfigured)

	table.Restore(Binding{GuildID: "g1", ChannelID: "c1"})
	b, err := table.SetEnabled("g1", true)
	require.NoError(t, err)
	assert.True(t, b.Enabled)

	total, enabled := table.Counts()
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, enabled)
}

func TestTable_EnabledIsSortedCopy(t *testing.T) {
	table := NewTable()
	table.Bind("g3", "c3")
	table.Bind("g1", "c1")
	table.Restore(Binding{GuildID: "g2", ChannelID: "c2", Enabled: false})

	bindings := table.Enabled()
	require.Len(t, bindings, 2)
	assert.Equal(t, "g1", bindings[0].GuildID)
	assert.Equal(t, "g3", bindings[1].GuildID)

	bindings[0].ChannelID = "mutated"
	b, _ := table.Get("g1")
	assert.Equal(t, "c1", b.ChannelID)
}
