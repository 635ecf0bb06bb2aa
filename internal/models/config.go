package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Webhook  WebhookConfig
	Sweeper  SweeperConfig
	Rewards  RewardsConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string
	Path            string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// AuthConfig selects how user bearer tokens are verified. A JWT secret
// verifies tokens locally; otherwise the auth service at URL is asked.
type AuthConfig struct {
	JWTSecret   string
	JWTAudience string
	URL         string
	APIKey      string
	Timeout     time.Duration
}

// WebhookConfig holds the credentials accepted from the donation processor
type WebhookConfig struct {
	Secret          string
	Token           string
	SignatureHeader string
}

// SweeperConfig controls the stale intent sweeper. ExpireAfter of zero
// disables expiry.
type SweeperConfig struct {
	Interval    time.Duration
	StaleAfter  time.Duration
	ExpireAfter time.Duration
}

// MetricsConfig toggles the prometheus endpoint
type MetricsConfig struct {
	Enabled bool
}

// PremiumTier maps a coin cost to premium days
type PremiumTier struct {
	Coins int64 `yaml:"coins"`
	Days  int   `yaml:"days"`
}

// DonationRewards parameterises the donation reward formula
type DonationRewards struct {
	MinAmount       decimal.Decimal `yaml:"-"`
	MinAmountRaw    string          `yaml:"min_amount"`
	PremiumDays     int             `yaml:"premium_days"`
	BaseTokens      int64           `yaml:"base_tokens"`
	TokensPerDollar int64           `yaml:"tokens_per_dollar"`
}

// RewardsConfig is loaded from rewards.yaml
type RewardsConfig struct {
	Tiers              []PremiumTier   `yaml:"tiers"`
	Donation           DonationRewards `yaml:"donation"`
	AllowSpendStacking bool            `yaml:"allow_spend_stacking"`
	DonationStacking   bool            `yaml:"donation_stacking"`
	DailyFreeViews     int             `yaml:"daily_free_views"`
}
