package bot

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Command names
const (
	cmdSetup    = "setup"
	cmdStart    = "start"
	cmdStop     = "stop"
	cmdMsg      = "msg"
	cmdPerm     = "perm"
	cmdPermList = "perm_list"
	cmdDel      = "del"
	cmdPing     = "ping"
	cmdTest     = "test"
	cmdWarn     = "warn"
	cmdWarnings = "warnings"
)

var dmPermission = false

// commandSet builds every slash command the bot serves
func (b *Bot) commandSet() []Command {
	commands := []Command{
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdSetup,
				Description: "Create a status channel.",
			},
			Handler: b.handleSetup,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdStop,
				Description: "Stop monitoring the server.",
			},
			Handler: b.handleStop,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdStart,
				Description: "Resume monitoring the server.",
			},
			Handler: b.handleStart,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdMsg,
				Description: "Send maintenance or stop message",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "type",
						Description: "Type",
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: noticeMaintenance, Value: noticeMaintenance},
							{Name: noticeServerStop, Value: noticeServerStop},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "time",
						Description: "Estimated time",
						Required:    true,
					},
				},
			},
			Handler: b.handleMsg,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdPerm,
				Description: "Allow/Deny role or reset permissions",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role",
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "permission",
						Description: "Command",
						// choices are filled in by registerCommandSet
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "toggle",
						Description: "Allow or deny",
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "allow", Value: "allow"},
							{Name: "deny", Value: "deny"},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "reset",
						Description: "Reset all permissions",
					},
				},
			},
			Handler: b.handlePerm,
			Manage:  true,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdPermList,
				Description: "List role permissions.",
			},
			Handler: b.handlePermList,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdDel,
				Description: "Delete channel messages (admin only)",
			},
			Handler: b.handleDel,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdPing,
				Description: "Check bot and VPS ping",
			},
			Handler: b.handlePing,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdTest,
				Description: "Test command",
			},
			Handler: b.handleTest,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdWarn,
				Description: "Warn a user with a reason",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        "user",
						Description: "User to warn",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "reason",
						Description: "Reason for the warning",
						Required:    true,
					},
				},
			},
			Handler: b.handleWarn,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        cmdWarnings,
				Description: "List the warnings of a user",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        "user",
						Description: "User to look up",
						Required:    true,
					},
				},
			},
			Handler: b.handleWarnings,
		},
	}

	for _, cmd := range commands {
		cmd.Definition.DMPermission = &dmPermission
	}
	return commands
}

// registerCommandSet fills the registry and points the perm command's
// "permission" choices at every registered command but test
func (b *Bot) registerCommandSet() {
	for _, cmd := range b.commandSet() {
		b.registry.Register(cmd)
	}

	perm, err := b.registry.Get(cmdPerm)
	if err != nil {
		return
	}
	perm.Definition.Options[1].Choices = permChoices(b.registry.Names())
}

func permChoices(names []string) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		if name == cmdTest {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: name,
		})
	}
	return choices
}

// registerCommands registers all slash commands with Discord, scoped to the
// configured guild or globally when none is set
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands", "guild", b.config.DiscordGuildID)

	registered, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID,
		b.config.DiscordGuildID,
		b.registry.Definitions(),
	)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.commands = registered
	slog.Info("Slash commands registered", "count", len(registered))
	return nil
}

// removeCommands removes all registered slash commands
func (b *Bot) removeCommands() {
	for _, cmd := range b.commands {
		err := b.session.ApplicationCommandDelete(b.session.State.User.ID, b.config.DiscordGuildID, cmd.ID)
		if err != nil {
			slog.Error("Failed to remove command", "name", cmd.Name, "error", err)
		}
	}
}

// optionMap indexes the top-level options of a command by name
func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
