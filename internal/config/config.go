package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken   string
	DiscordGuildID string // empty = register commands globally
	InviteURL      string

	// Status monitoring
	StatusHost        string
	StatusAPIURL      string
	StatusTimeout     time.Duration
	StatusChannelName string
	PollingInterval   time.Duration
	PingHost          string

	// Database
	DatabasePath string

	// Redis (optional card reference cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Ops server (empty disables it)
	MetricsAddr string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables. envFile is loaded
// first when it exists; variables already set in the environment win.
func Load(envFile string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg := &Config{
		DiscordToken:      os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordGuildID:    os.Getenv("DISCORD_GUILD_ID"),
		InviteURL:         getEnvOrDefault("DISCORD_INVITE_URL", "https://discord.gg/Y9p5W5Bx"),
		StatusHost:        getEnvOrDefault("STATUS_HOST", "heartlessmc.playcraft.me"),
		StatusAPIURL:      getEnvOrDefault("STATUS_API_URL", "https://api.mcsrvstat.us/2"),
		StatusChannelName: getEnvOrDefault("STATUS_CHANNEL_NAME", "server-status"),
		PingHost:          getEnvOrDefault("PING_HOST", "8.8.8.8"),
		DatabasePath:      getEnvOrDefault("DATABASE_PATH", "./data/bot.db"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		MetricsAddr:       os.Getenv("METRICS_ADDR"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
	}

	polling, err := getEnvSeconds("POLLING_INTERVAL_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.PollingInterval = polling

	timeout, err := getEnvSeconds("STATUS_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	cfg.StatusTimeout = timeout

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	// Validate required fields
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if cfg.StatusTimeout >= cfg.PollingInterval {
		return nil, fmt.Errorf("STATUS_TIMEOUT_SECONDS (%s) must be shorter than POLLING_INTERVAL_SECONDS (%s)",
			cfg.StatusTimeout, cfg.PollingInterval)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) (time.Duration, error) {
	raw := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}
