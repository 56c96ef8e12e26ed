package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/flor3z/mcstatus-bot/internal/mcstatus"
	"github.com/flor3z/mcstatus-bot/internal/metrics"
)

// ErrGateway wraps failures of Discord calls made while reconciling
var ErrGateway = errors.New("gateway error")

// Action is what one reconciliation did
type Action string

const (
	ActionPublished     Action = "published"
	ActionEdited        Action = "edited"
	ActionRepublished   Action = "republished"
	ActionOfflineNotice Action = "offline_notice"
	ActionFailed        Action = "failed"
)

// Gateway is the part of the Discord session the reconciler needs.
// *discordgo.Session satisfies it.
type Gateway interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Reconciler keeps one status card per guild up to date. It owns the card
// store: nothing else records card references.
//
// Per guild it moves between two states. Without a recorded card a snapshot
// is published and its ID recorded. With a recorded card the card is edited
// in place; if Discord no longer knows the message a new card is published
// and recorded instead. An unreachable server produces a plain offline notice
// and leaves the recorded card alone, so the next online snapshot edits the
// last good card.
type Reconciler struct {
	gateway  Gateway
	cards    CardStore
	renderer *CardRenderer
	logger   *slog.Logger
}

// NewReconciler creates a reconciler
func NewReconciler(gateway Gateway, cards CardStore, renderer *CardRenderer, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		gateway:  gateway,
		cards:    cards,
		renderer: renderer,
		logger:   logger,
	}
}

// Reconcile brings the guild's channel in line with snap. A nil snap means
// the server is unreachable.
func (r *Reconciler) Reconcile(ctx context.Context, b Binding, snap *mcstatus.Snapshot) (Action, error) {
	action, err := r.reconcile(ctx, b, snap)
	metrics.RecordReconcile(string(action))
	return action, err
}

func (r *Reconciler) reconcile(ctx context.Context, b Binding, snap *mcstatus.Snapshot) (Action, error) {
	if snap == nil {
		if _, err := r.gateway.ChannelMessageSend(b.ChannelID, r.renderer.OfflineNotice(), discordgo.WithContext(ctx)); err != nil {
			return ActionFailed, fmt.Errorf("%w: send offline notice: %w", ErrGateway, err)
		}
		return ActionOfflineNotice, nil
	}

	lastID, err := r.cards.Get(ctx, b.GuildID)
	if err != nil {
		return ActionFailed, fmt.Errorf("load card reference: %w", err)
	}

	action := ActionPublished
	if lastID != "" {
		edit := r.renderer.EditMessage(b.ChannelID, lastID, snap)
		_, err := r.gateway.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
		if err == nil {
			return ActionEdited, nil
		}
		if !isMissingMessage(err) {
			return ActionFailed, fmt.Errorf("%w: edit card %s: %w", ErrGateway, lastID, err)
		}

		r.logger.Info("Status card is gone, publishing a new one",
			"guildID", b.GuildID, "channelID", b.ChannelID, "messageID", lastID)
		action = ActionRepublished
	}

	msg, err := r.gateway.ChannelMessageSendComplex(b.ChannelID, r.renderer.NewMessage(snap), discordgo.WithContext(ctx))
	if err != nil {
		return ActionFailed, fmt.Errorf("%w: publish card: %w", ErrGateway, err)
	}

	// The card is visible even if recording fails; the next tick will then
	// publish another one.
	if err := r.cards.Set(ctx, b.GuildID, msg.ID); err != nil {
		return action, fmt.Errorf("record card reference: %w", err)
	}

	return action, nil
}

// isMissingMessage reports whether Discord rejected an edit because the
// message no longer exists
func isMissingMessage(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
