/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"stash-premium-go/internal/models"

	"github.com/shopspring/decimal"
)

// Rewards applies the configured reward policy
type Rewards struct {
	cfg models.RewardsConfig
}

func NewRewards(cfg models.RewardsConfig) Rewards {
	return Rewards{cfg: cfg}
}

// Qualifies reports whether a donation meets the minimum amount.
func (r Rewards) Qualifies(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(r.cfg.Donation.MinAmount)
}

// PremiumDays returns the premium days granted for a donation amount in dollars
func (r Rewards) PremiumDays(amount decimal.Decimal) int {
	if !r.Qualifies(amount) {
		return 0
	}
	return r.cfg.Donation.PremiumDays
}

// BonusTokens returns base tokens at the minimum plus a per-dollar bonus,
// floored, for the amount above it.
func (r Rewards) BonusTokens(amount decimal.Decimal) int64 {
	if !r.Qualifies(amount) {
		return 0
	}
	extra := amount.Sub(r.cfg.Donation.MinAmount).
		Mul(decimal.NewFromInt(r.cfg.Donation.TokensPerDollar)).
		Floor()
	return r.cfg.Donation.BaseTokens + extra.IntPart()
}

// TierDays maps a coin cost to the premium days it buys.
func (r Rewards) TierDays(coins int64) (int, bool) {
	for _, tier := range r.cfg.Tiers {
		if tier.Coins == coins {
			return tier.Days, true
		}
	}
	return 0, false
}

func (r Rewards) MinAmount() decimal.Decimal {
	return r.cfg.Donation.MinAmount
}

func (r Rewards) DailyFreeViews() int {
	return r.cfg.DailyFreeViews
}

func (r Rewards) AllowSpendStacking() bool {
	return r.cfg.AllowSpendStacking
}

func (r Rewards) DonationStacking() bool {
	return r.cfg.DonationStacking
}
