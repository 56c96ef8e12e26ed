package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Definition: &discordgo.ApplicationCommand{Name: "stop", Description: "old"}})
	r.Register(Command{Definition: &discordgo.ApplicationCommand{Name: "ping"}})
	r.Register(Command{Definition: &discordgo.ApplicationCommand{Name: "stop", Description: "new"}})

	assert.Equal(t, []string{"ping", "stop"}, r.Names())

	cmd, err := r.Get("stop")
	require.NoError(t, err)
	assert.Equal(t, "new", cmd.Definition.Description)

	_, err = r.Get("setup")
	assert.EqualError(t, err, "unknown command: setup")

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "ping", defs[0].Name)
	assert.Equal(t, "stop", defs[1].Name)
}

func TestRegisterCommandSet(t *testing.T) {
	b := &Bot{registry: NewRegistry()}
	b.registerCommandSet()

	names := b.registry.Names()
	assert.Equal(t, []string{
		cmdDel, cmdMsg, cmdPerm, cmdPermList, cmdPing, cmdSetup,
		cmdStart, cmdStop, cmdTest, cmdWarn, cmdWarnings,
	}, names)

	for _, name := range names {
		cmd, err := b.registry.Get(name)
		require.NoError(t, err)
		require.NotNil(t, cmd.Handler, name)
		require.NotNil(t, cmd.Definition.DMPermission, name)
		assert.False(t, *cmd.Definition.DMPermission, name)
		assert.Equal(t, name == cmdPerm, cmd.Manage, name)
	}

	// every command but test can be restricted through perm
	perm, err := b.registry.Get(cmdPerm)
	require.NoError(t, err)

	var choices []string
	for _, c := range perm.Definition.Options[1].Choices {
		choices = append(choices, c.Value.(string))
	}
	assert.Equal(t, []string{
		cmdDel, cmdMsg, cmdPerm, cmdPermList, cmdPing, cmdSetup,
		cmdStart, cmdStop, cmdWarn, cmdWarnings,
	}, choices)
}
