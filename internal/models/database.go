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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types recorded in the token transaction log. The column is an
// open-ended tag; only earn and spend are accepted from the public API.
const (
	TransactionTypeEarn          = "earn"
	TransactionTypeSpend         = "spend"
	TransactionTypeDonationBonus = "donation_bonus"
)

// Transaction sources
const (
	SourcePremiumPurchase = "premium_purchase"
	SourceDonation        = "donation"
)

// Donation intent states. Pending and initiated are both non-terminal.
const (
	IntentStatusInitiated = "initiated"
	IntentStatusPending   = "pending"
	IntentStatusCompleted = "completed"
	IntentStatusExpired   = "expired"
)

// Experience types that can be viewed
const (
	ExperienceTypeInterview   = "interview"
	ExperienceTypeGeneralPost = "general_post"
)

// LedgerEntry is the authoritative coin balance and premium expiry of a user
type LedgerEntry struct {
	UserId       string     `db:"user_id"`
	Coins        int64      `db:"coins"`
	PremiumUntil *time.Time `db:"premium_until"`
	Version      int64      `db:"version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// IsPremiumAt reports whether premium is active at the given instant.
func (l *LedgerEntry) IsPremiumAt(now time.Time) bool {
	return l != nil && l.PremiumUntil != nil && l.PremiumUntil.After(now)
}

// TokenTransaction is an append-only audit record of a balance change
type TokenTransaction struct {
	Id              string    `db:"id"`
	UserId          string    `db:"user_id"`
	Amount          int64     `db:"amount"`
	TransactionType string    `db:"transaction_type"`
	Description     string    `db:"description"`
	Source          string    `db:"source"`
	ReferenceId     string    `db:"reference_id"`
	CreatedAt       time.Time `db:"created_at"`
}

// DonationIntent records a donation attempt before the processor confirms it
type DonationIntent struct {
	Id                string          `db:"id"`
	UserId            string          `db:"user_id"`
	DonationReference string          `db:"donation_reference"`
	Amount            decimal.Decimal `db:"amount"`
	NonprofitId       string          `db:"nonprofit_id"`
	Status            string          `db:"status"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
	CompletedAt       *time.Time      `db:"completed_at"`
}

// IsCompleted reports whether the intent reached its terminal completed state.
func (i *DonationIntent) IsCompleted() bool {
	return i.Status == IntentStatusCompleted
}

// DonationRecord is written once per completed donation
type DonationRecord struct {
	Id                string          `db:"id"`
	UserId            string          `db:"user_id"`
	DonationReference string          `db:"donation_reference"`
	NonprofitId       string          `db:"nonprofit_id"`
	NonprofitName     string          `db:"nonprofit_name"`
	Amount            decimal.Decimal `db:"amount"`
	PremiumDays       int             `db:"premium_days"`
	PremiumUntil      *time.Time      `db:"premium_until"`
	TokensGranted     int64           `db:"tokens_granted"`
	CreatedAt         time.Time       `db:"created_at"`
}

// ViewRecord marks that a user opened a content item on a calendar day
type ViewRecord struct {
	Id             string    `db:"id"`
	UserId         string    `db:"user_id"`
	ExperienceId   string    `db:"experience_id"`
	ExperienceType string    `db:"experience_type"`
	ViewDate       string    `db:"view_date"`
	CreatedAt      time.Time `db:"created_at"`
}
