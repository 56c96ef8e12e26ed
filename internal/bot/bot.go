package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-redis/redis/v8"

	"github.com/flor3z/mcstatus-bot/internal/access"
	"github.com/flor3z/mcstatus-bot/internal/config"
	"github.com/flor3z/mcstatus-bot/internal/mcstatus"
	"github.com/flor3z/mcstatus-bot/internal/metrics"
	"github.com/flor3z/mcstatus-bot/internal/monitor"
	"github.com/flor3z/mcstatus-bot/internal/storage"
)

// Bot represents the Discord bot instance
type Bot struct {
	config     *config.Config
	session    *discordgo.Session
	repo       *storage.Repository
	redis      *redis.Client
	registry   *Registry
	dispatcher *Dispatcher
	table      *monitor.Table
	scheduler  *monitor.Scheduler
	ops        *metrics.Server
	commands   []*discordgo.ApplicationCommand
	probe      hostProber

	// RemoveCommandsOnStop unregisters the slash commands during Stop
	RemoveCommandsOnStop bool
}

// New creates a new Bot instance
func New(cfg *config.Config) (*Bot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Set intents
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	// Initialize storage
	repo, err := storage.NewRepository(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	b := &Bot{
		config:   cfg,
		session:  session,
		repo:     repo,
		registry: NewRegistry(),
		table:    monitor.NewTable(),
		probe:    probeHost,
	}

	// Card references live in Redis when configured so a restart keeps
	// editing the same message
	var cards monitor.CardStore = monitor.NewMemoryCardStore()
	if cfg.RedisAddr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cards = monitor.NewRedisCardStore(b.redis)
	}

	reconciler := monitor.NewReconciler(session, cards, monitor.NewCardRenderer(cfg.StatusHost, cfg.InviteURL), slog.Default())
	b.scheduler = monitor.NewScheduler(
		b.table,
		mcstatus.NewClient(cfg.StatusAPIURL, cfg.StatusTimeout),
		reconciler,
		monitor.SchedulerConfig{
			Host:     cfg.StatusHost,
			Interval: cfg.PollingInterval,
			Timeout:  cfg.StatusTimeout,
		},
		slog.Default(),
	)

	b.registerCommandSet()
	b.dispatcher = NewDispatcher(access.NewGate(repo), b, b.registry, slog.Default())

	if cfg.MetricsAddr != "" {
		b.ops = metrics.NewServer(cfg.MetricsAddr, b.health)
	}

	// Register event handlers
	b.registerHandlers()

	return b, nil
}

// Start opens the Discord connection and starts background tasks
func (b *Bot) Start(ctx context.Context) error {
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	if err := b.restoreBindings(ctx); err != nil {
		return err
	}

	// Open Discord connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	// Register slash commands
	if err := b.registerCommands(); err != nil {
		return err
	}

	if b.ops != nil {
		b.ops.Start()
	}

	// Start the status monitor
	return b.scheduler.Start(ctx)
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	// Stop the monitor first so no tick runs against a closed session
	b.scheduler.Stop()

	if b.RemoveCommandsOnStop {
		b.removeCommands()
	}

	if b.ops != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.ops.Shutdown(ctx); err != nil {
			slog.Error("Failed to stop ops server", "error", err)
		}
	}

	if b.redis != nil {
		b.redis.Close()
	}

	// Close storage
	if b.repo != nil {
		b.repo.Close()
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.dispatcher.HandleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// restoreBindings loads the persisted monitor bindings into the table
func (b *Bot) restoreBindings(ctx context.Context) error {
	bindings, err := b.repo.ListBindings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load monitor bindings: %w", err)
	}

	for _, mb := range bindings {
		b.table.Restore(monitor.Binding{
			GuildID:   mb.GuildID,
			ChannelID: mb.ChannelID,
			Enabled:   mb.Enabled,
		})
	}

	slog.Info("Restored monitor bindings", "count", len(bindings))
	return nil
}

// saveBinding persists a binding. The in-memory table stays authoritative,
// so a failure here is logged and the command still succeeds.
func (b *Bot) saveBinding(ctx context.Context, binding monitor.Binding) {
	err := b.repo.UpsertBinding(ctx, &storage.MonitorBinding{
		GuildID:   binding.GuildID,
		ChannelID: binding.ChannelID,
		Enabled:   binding.Enabled,
	})
	if err != nil {
		slog.Error("Failed to persist monitor binding", "guildID", binding.GuildID, "error", err)
	}
}

// GuildOwner returns the owner of a guild, preferring the gateway state cache
func (b *Bot) GuildOwner(guildID string) string {
	if g, err := b.session.State.Guild(guildID); err == nil {
		return g.OwnerID
	}
	g, err := b.session.Guild(guildID)
	if err != nil {
		slog.Warn("Failed to look up guild owner", "guildID", guildID, "error", err)
		return ""
	}
	return g.OwnerID
}

// health reports the state shown on the ops server's /health endpoint
func (b *Bot) health(ctx context.Context) metrics.Health {
	total, enabled := b.table.Counts()
	h := metrics.Health{
		Status: "ok",
		Checks: map[string]any{
			"bindings":         total,
			"bindings_enabled": enabled,
			"gateway_ready":    b.session.DataReady,
		},
	}

	if !b.session.DataReady {
		h.Status = "degraded"
	}
	if err := b.repo.Ping(ctx); err != nil {
		h.Status = "error"
		h.Checks["database"] = err.Error()
	}
	return h
}
