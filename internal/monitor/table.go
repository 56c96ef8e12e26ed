package monitor

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotConfigured is returned when a guild has no status channel yet
var ErrNotConfigured = errors.New("monitoring is not set up for this guild")

// Binding says where, and whether, a guild's status card is published
type Binding struct {
	GuildID   string
	ChannelID string
	Enabled   bool
}

// Table holds the monitor bindings of every guild. It is shared by the
// scheduler, which reads it once per tick, and the command handlers, which
// change it; changes are picked up on the next tick.
type Table struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

// NewTable creates an empty binding table
func NewTable() *Table {
	return &Table{
		bindings: make(map[string]Binding),
	}
}

// Bind points guildID at channelID and enables monitoring. It reports
// whether the channel changed; binding the current channel again only
// re-enables it.
func (t *Table) Bind(guildID, channelID string) (Binding, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.bindings[guildID]
	b := Binding{GuildID: guildID, ChannelID: channelID, Enabled: true}
	t.bindings[guildID] = b
	return b, !ok || prev.ChannelID != channelID
}

// Restore loads a binding as-is, used when reloading persisted state
func (t *Table) Restore(b Binding) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings[b.GuildID] = b
}

// Get returns the binding of a guild
func (t *Table) Get(guildID string) (Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	b, ok := t.bindings[guildID]
	return b, ok
}

// SetEnabled turns monitoring on or off for a guild that has a binding
func (t *Table) SetEnabled(guildID string, enabled bool) (Binding, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.bindings[guildID]
	if !ok {
		return Binding{}, ErrNotConfigured
	}
	b.Enabled = enabled
	t.bindings[guildID] = b
	return b, nil
}

// Enabled returns a copy of every enabled binding, ordered by guild ID
func (t *Table) Enabled() []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bindings := make([]Binding, 0, len(t.bindings))
	for _, b := range t.bindings {
		if b.Enabled {
			bindings = append(bindings, b)
		}
	}
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].GuildID < bindings[j].GuildID
	})
	return bindings
}

// Counts returns the number of bindings and how many of them are enabled
func (t *Table) Counts() (total, enabled int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, b := range t.bindings {
		if b.Enabled {
			enabled++
		}
	}
	return len(t.bindings), enabled
}
