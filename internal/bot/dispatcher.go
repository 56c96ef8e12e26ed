package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/mcstatus-bot/internal/access"
	"github.com/flor3z/mcstatus-bot/internal/metrics"
)

const commandTimeout = 15 * time.Second

// Replies shared by every command
const (
	replyDenied      = "⛔ No permission for this command."
	replyNotManager  = "⛔ Only the server owner or an administrator can do this."
	replyUnavailable = "⛔ Permission check unavailable, try again later."
	replyGuildOnly   = "⚠️ This command can only be used in a server."
	replyFailed      = "❌ Something went wrong."
)

// Authorizer decides whether a member may run a command
type Authorizer interface {
	IsAuthorized(ctx context.Context, guildID, command string, roles []string) (bool, error)
}

type verdict string

const (
	verdictAllow       verdict = "ok"
	verdictDenied      verdict = "denied"
	verdictNotManager  verdict = "not_manager"
	verdictUnavailable verdict = "unavailable"
	verdictGuildOnly   verdict = "guild_only"
	verdictUnknown     verdict = "unknown"
)

// OwnerLookup resolves the owner of a guild, "" when unknown
type OwnerLookup interface {
	GuildOwner(guildID string) string
}

// Dispatcher checks every slash command against the permission rules and
// routes it to exactly one handler
type Dispatcher struct {
	gate     Authorizer
	owners   OwnerLookup
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(gate Authorizer, owners OwnerLookup, registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		gate:     gate,
		owners:   owners,
		registry: registry,
		logger:   logger,
	}
}

// HandleInteraction is registered as the session's InteractionCreate handler
func (d *Dispatcher) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	d.logger.Debug("Received command", "command", name, "guild", i.GuildID)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd, v, err := d.decide(ctx, name, i.GuildID, i.Member)
	metrics.RecordCommand(name, string(v))

	switch v {
	case verdictAllow:
	case verdictDenied:
		respondEphemeral(s, i, replyDenied)
		return
	case verdictNotManager:
		respondEphemeral(s, i, replyNotManager)
		return
	case verdictUnavailable:
		d.logger.Error("Permission check failed", "command", name, "guild", i.GuildID, "error", err)
		respondEphemeral(s, i, replyUnavailable)
		return
	case verdictGuildOnly:
		respondEphemeral(s, i, replyGuildOnly)
		return
	default:
		d.logger.Warn("Unknown command", "command", name)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Command handler panicked", "command", name, "guild", i.GuildID, "panic", r)
			replyError(s, i)
		}
	}()

	cmd.Handler(ctx, s, i)
}

// decide resolves the command and checks the member's roles against the
// guild's rules. A failed permission lookup denies with verdictUnavailable.
// Manage commands are decided by the owner/administrator check alone, so no
// role rule can lock the owner out of perm.
func (d *Dispatcher) decide(ctx context.Context, name, guildID string, member *discordgo.Member) (Command, verdict, error) {
	cmd, err := d.registry.Get(name)
	if err != nil {
		return Command{}, verdictUnknown, err
	}

	if guildID == "" || member == nil {
		return Command{}, verdictGuildOnly, nil
	}

	if cmd.Manage {
		if !access.CanManage(member, d.owners.GuildOwner(guildID)) {
			return Command{}, verdictNotManager, nil
		}
		return cmd, verdictAllow, nil
	}

	ok, err := d.gate.IsAuthorized(ctx, guildID, name, member.Roles)
	if err != nil {
		return Command{}, verdictUnavailable, err
	}
	if !ok {
		return Command{}, verdictDenied, nil
	}
	return cmd, verdictAllow, nil
}

// replyError answers an interaction that failed after it was accepted,
// editing the deferred response if there is one
func replyError(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: replyFailed,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
			Content: replyFailed,
			Flags:   discordgo.MessageFlagsEphemeral,
		})
	}
}
