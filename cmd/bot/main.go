package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/flor3z/mcstatus-bot/internal/bot"
	"github.com/flor3z/mcstatus-bot/internal/config"
)

func main() {
	var envFile string
	var logLevel string
	var removeCommands bool

	flagSet := pflag.NewFlagSet("mcstatus-bot", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flagSet.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	flagSet.BoolVar(&removeCommands, "remove-commands", false, "unregister the slash commands on shutdown")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(envFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Set up logging
	setupLogging(cfg.LogLevel)

	slog.Info("Starting Minecraft Status Bot", "host", cfg.StatusHost, "interval", cfg.PollingInterval)

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create and start the bot
	b, err := bot.New(cfg)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}
	b.RemoveCommandsOnStop = removeCommands

	// Start the bot
	if err := b.Start(ctx); err != nil {
		slog.Error("Failed to start bot", "error", err)
		b.Stop()
		os.Exit(1)
	}

	slog.Info("Bot is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	cancel()

	// Stop the bot gracefully
	if err := b.Stop(); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}

	slog.Info("Bot stopped")
}

// setupLogging installs a text handler on stdout. Unknown levels fall back
// to info.
func setupLogging(level string) {
	var logLevel slog.Level
	invalid := logLevel.UnmarshalText([]byte(level)) != nil
	if invalid {
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))

	if invalid && level != "" {
		slog.Warn("Unknown log level, using info", "level", level)
	}
}
