package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"stash-premium-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// DefaultRewards returns the built-in premium tiers and donation rewards.
func DefaultRewards() models.RewardsConfig {
	return models.RewardsConfig{
		Tiers: []models.PremiumTier{
			{Coins: 100, Days: 7},
			{Coins: 300, Days: 30},
		},
		Donation: models.DonationRewards{
			MinAmount:       decimal.NewFromInt(10),
			MinAmountRaw:    "10",
			PremiumDays:     30,
			BaseTokens:      300,
			TokensPerDollar: 30,
		},
		AllowSpendStacking: false,
		DonationStacking:   true,
		DailyFreeViews:     2,
	}
}

// LoadRewards reads rewardsFile on top of DefaultRewards. A missing file is
// not an error.
func LoadRewards(rewardsFile string) (*models.RewardsConfig, error) {
	rewards := DefaultRewards()
	if rewardsFile == "" {
		return &rewards, nil
	}

	rewardsPath := rewardsFile
	if !filepath.IsAbs(rewardsFile) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		rewardsPath = filepath.Join(wd, rewardsFile)
	}

	data, err := os.ReadFile(rewardsPath)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Debug("Rewards file not found, using defaults", zap.String("file", rewardsPath))
		return &rewards, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", rewardsFile, err)
	}

	if err := yaml.Unmarshal(data, &rewards); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", rewardsFile, err)
	}

	if err := validateRewards(&rewards); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", rewardsFile, err)
	}

	zap.L().Info("Loaded rewards configuration",
		zap.String("file", rewardsPath),
		zap.Int("tiers", len(rewards.Tiers)),
		zap.String("min_donation", rewards.Donation.MinAmount.String()))

	return &rewards, nil
}

func validateRewards(rewards *models.RewardsConfig) error {
	minAmount, err := decimal.NewFromString(rewards.Donation.MinAmountRaw)
	if err != nil {
		return fmt.Errorf("donation.min_amount %q is not a number: %w", rewards.Donation.MinAmountRaw, err)
	}
	if minAmount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("donation.min_amount must be positive")
	}
	rewards.Donation.MinAmount = minAmount

	if len(rewards.Tiers) == 0 {
		return fmt.Errorf("at least one premium tier is required")
	}
	seen := make(map[int64]bool)
	for i, tier := range rewards.Tiers {
		if tier.Coins <= 0 {
			return fmt.Errorf("tier at index %d must cost a positive number of coins", i)
		}
		if tier.Days <= 0 {
			return fmt.Errorf("tier at index %d must grant a positive number of days", i)
		}
		if seen[tier.Coins] {
			return fmt.Errorf("duplicate tier for %d coins", tier.Coins)
		}
		seen[tier.Coins] = true
	}

	if rewards.Donation.PremiumDays < 0 || rewards.Donation.BaseTokens < 0 || rewards.Donation.TokensPerDollar < 0 {
		return fmt.Errorf("donation rewards cannot be negative")
	}
	if rewards.DailyFreeViews < 0 {
		return fmt.Errorf("daily_free_views cannot be negative")
	}
	return nil
}
