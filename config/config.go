package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"guildbot/database"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string `env:"DISCORD_TOKEN"`
	GuildID      string `env:"GUILD_ID"` // Guild to register commands in; empty registers globally

	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// NATS configuration (empty disables event publishing)
	NATSServers string `env:"NATS_SERVERS"`

	// Redis configuration (empty falls back to an in-process giveaway lock)
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Status API. It has no authentication, so it binds to loopback unless told otherwise.
	StatusAPIHost string `env:"STATUS_API_HOST" envDefault:"127.0.0.1"`
	StatusAPIPort int    `env:"STATUS_API_PORT" envDefault:"8899"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Command throttling per user
	CommandRateLimit float64 `env:"COMMAND_RATE_LIMIT" envDefault:"1"`
	CommandBurst     int     `env:"COMMAND_BURST" envDefault:"3"`

	Giveaway GiveawayConfig `envPrefix:"GIVEAWAY_"`
	Economy  EconomyConfig  `envPrefix:"ECONOMY_"`

	// OpenTelemetry configuration
	OTelEnabled              bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelServiceName          string `env:"OTEL_SERVICE_NAME" envDefault:"guildbot"`
	OTelExporterType         string `env:"OTEL_EXPORTER_TYPE" envDefault:"none"` // console, otlp or none
	OTelOTLPEndpoint         string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelExportIntervalMillis int    `env:"OTEL_EXPORT_INTERVAL_MILLIS" envDefault:"60000"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

// GiveawayConfig configures giveaway commands and the end worker
type GiveawayConfig struct {
	Emoji              string        `env:"EMOJI" envDefault:"🎉"`
	DefaultDuration    time.Duration `env:"DEFAULT_DURATION" envDefault:"1h"`
	MinDuration        time.Duration `env:"MIN_DURATION" envDefault:"1m"`
	MaxDuration        time.Duration `env:"MAX_DURATION" envDefault:"720h"`
	MaxWinners         int           `env:"MAX_WINNERS" envDefault:"20"`
	WinnerRoleID       string        `env:"WINNER_ROLE_ID"` // Granted to every selected winner
	CreateClaimChannel bool          `env:"CREATE_CLAIM_CHANNEL" envDefault:"false"`
	ClaimCategoryID    string        `env:"CLAIM_CATEGORY_ID"` // Parent category for prize-claim channels
	LockTTL            time.Duration `env:"LOCK_TTL" envDefault:"30s"`
	IdleRecheck        time.Duration `env:"IDLE_RECHECK" envDefault:"1h"`
}

// EconomyConfig configures the coin economy and the daily reward policy
type EconomyConfig struct {
	DailyAmount       int64         `env:"DAILY_AMOUNT" envDefault:"100"`
	CurrencyName      string        `env:"CURRENCY_NAME" envDefault:"coins"`
	CurrencyEmoji     string        `env:"CURRENCY_EMOJI" envDefault:"💰"`
	ClaimWindow       time.Duration `env:"CLAIM_WINDOW" envDefault:"20h"`
	ClaimCooldown     time.Duration `env:"CLAIM_COOLDOWN" envDefault:"24h"`
	StreakBreak       time.Duration `env:"STREAK_BREAK" envDefault:"48h"`
	StreakBonusPerDay float64       `env:"STREAK_BONUS_PER_DAY" envDefault:"0.05"`
	StreakCapFraction float64       `env:"STREAK_CAP_FRACTION" envDefault:"0.5"`
	TopHolderRoleID   string        `env:"TOP_HOLDER_ROLE_ID"`
	LeaderboardSize   int           `env:"LEADERBOARD_SIZE" envDefault:"10"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
				instance.DiscordToken = "test-token"
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsTest reports whether the process runs with the test environment
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}

// load reads configuration from the environment, after merging a local .env file if present
func load() (*Config, error) {
	// A missing .env file is normal in containers
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required settings and value ranges
func (c *Config) Validate() error {
	if c.Environment != "test" {
		if c.DiscordToken == "" {
			return fmt.Errorf("DISCORD_TOKEN is required")
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
			return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	if c.Giveaway.Emoji == "" {
		return fmt.Errorf("GIVEAWAY_EMOJI cannot be empty")
	}
	if c.Giveaway.MaxWinners < 1 {
		return fmt.Errorf("GIVEAWAY_MAX_WINNERS must be at least 1")
	}
	if c.Giveaway.MinDuration <= 0 || c.Giveaway.MaxDuration < c.Giveaway.MinDuration {
		return fmt.Errorf("invalid giveaway duration bounds: min %v, max %v", c.Giveaway.MinDuration, c.Giveaway.MaxDuration)
	}
	if c.Economy.DailyAmount < 0 {
		return fmt.Errorf("ECONOMY_DAILY_AMOUNT cannot be negative")
	}
	if c.Economy.StreakBonusPerDay < 0 || c.Economy.StreakCapFraction < 0 {
		return fmt.Errorf("streak bonus settings cannot be negative")
	}
	if c.Economy.ClaimWindow <= 0 || c.Economy.StreakBreak < c.Economy.ClaimWindow {
		return fmt.Errorf("streak break (%v) must not be shorter than the claim window (%v)", c.Economy.StreakBreak, c.Economy.ClaimWindow)
	}

	return nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a config populated with the declared defaults and the test environment
func NewTestConfig() *Config {
	cfg := &Config{}
	// An empty environment map yields the envDefault values only
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("failed to build test config: %v", err))
	}
	cfg.Environment = "test"
	return cfg
}
