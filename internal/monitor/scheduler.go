package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/flor3z/mcstatus-bot/internal/mcstatus"
	"github.com/flor3z/mcstatus-bot/internal/metrics"
)

// Fetcher reads the current status of a server
type Fetcher interface {
	Fetch(ctx context.Context, host string) (*mcstatus.Snapshot, error)
}

// SchedulerConfig holds the settings of a Scheduler
type SchedulerConfig struct {
	Host     string
	Interval time.Duration
	Timeout  time.Duration // bound for each fetch and each reconciliation
}

// Scheduler polls the server status on a fixed period and reconciles the
// card of every enabled guild. Each guild runs in its own span so a slow or
// failing guild never holds up the others.
type Scheduler struct {
	table      *Table
	fetcher    Fetcher
	reconciler *Reconciler
	cfg        SchedulerConfig
	logger     *slog.Logger

	cron    *cron.Cron
	ctx     context.Context
	initial sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewScheduler creates a scheduler. Call Start to begin polling.
func NewScheduler(table *Table, fetcher Fetcher, reconciler *Reconciler, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	cl := cronLogger{logger: logger}
	return &Scheduler{
		table:      table,
		fetcher:    fetcher,
		reconciler: reconciler,
		cfg:        cfg,
		logger:     logger,
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		inflight:   make(map[string]struct{}),
	}
}

// Start schedules the polling job and runs a first tick right away.
// Ticks stop when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx

	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	if _, err := s.cron.AddFunc(spec, func() { s.tick(s.ctx) }); err != nil {
		return fmt.Errorf("failed to schedule status polling: %w", err)
	}

	s.logger.Info("Starting status monitor", "interval", s.cfg.Interval, "host", s.cfg.Host)
	s.cron.Start()

	// Initial poll
	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.tick(ctx)
	}()

	return nil
}

// Stop halts the schedule and waits for running ticks to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.initial.Wait()
	s.logger.Info("Status monitor stopped")
}

// tick runs one span per enabled guild and waits for all of them
func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	bindings := s.table.Enabled()
	if len(bindings) == 0 {
		s.logger.Debug("No guilds to monitor")
		return
	}

	s.logger.Debug("Polling server status", "guilds", len(bindings))

	var wg sync.WaitGroup
	for _, b := range bindings {
		if !s.acquire(b.GuildID) {
			s.logger.Warn("Previous poll still running, skipping guild", "guildID", b.GuildID)
			continue
		}

		wg.Add(1)
		go func(b Binding) {
			defer wg.Done()
			defer s.release(b.GuildID)
			s.runSpan(ctx, b)
		}(b)
	}
	wg.Wait()
}

// runSpan fetches the status and reconciles the card for one guild
func (s *Scheduler) runSpan(ctx context.Context, b Binding) {
	logger := s.logger.With("guildID", b.GuildID, "channelID", b.ChannelID, "span", uuid.NewString())

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Monitor span panicked", "panic", r)
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	start := time.Now()
	snap, err := s.fetcher.Fetch(fetchCtx, s.cfg.Host)
	cancel()
	metrics.ObserveFetch(err, time.Since(start))

	if err != nil {
		// a timeout or any other fetch failure counts as unreachable
		logger.Warn("Server unreachable", "host", s.cfg.Host, "error", err)
		snap = nil
	}

	reconcileCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	action, err := s.reconciler.Reconcile(reconcileCtx, b, snap)
	if err != nil {
		logger.Error("Failed to update status card", "action", action, "error", err)
		return
	}

	logger.Debug("Status card updated", "action", action)
}

func (s *Scheduler) acquire(guildID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[guildID]; busy {
		return false
	}
	s.inflight[guildID] = struct{}{}
	return true
}

func (s *Scheduler) release(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, guildID)
}

// cronLogger routes cron's own logging through slog
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
