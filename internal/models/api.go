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

// RemainingUnlimited is reported instead of a number for premium users
const RemainingUnlimited = "unlimited"

// Balance is the public view of a ledger entry
type Balance struct {
	Coins        int64      `json:"coins"`
	PremiumUntil *time.Time `json:"premium_until"`
}

// SpendRequest is the body accepted by the token endpoint
type SpendRequest struct {
	Action string `json:"action" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
}

// TransactionRecord represents a transaction in the user's history
type TransactionRecord struct {
	Id              string    `json:"id"`
	Amount          int64     `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	Description     string    `json:"description"`
	Source          string    `json:"source"`
	ReferenceId     string    `json:"reference_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TransactionPage is a page of transaction history plus the overall count
type TransactionPage struct {
	Transactions []TransactionRecord `json:"transactions"`
	Total        int64               `json:"total"`
}

// CreateDonationRequest starts a donation flow
type CreateDonationRequest struct {
	NonprofitId string          `json:"nonprofitId" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

// CreateDonationResponse returns the correlation reference to the client
type CreateDonationResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// DonationStatus is returned to clients polling a donation reference
type DonationStatus struct {
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at"`
	NonprofitId   string          `json:"nonprofit_id"`
	NonprofitName string          `json:"nonprofit_name"`
	PremiumDays   int             `json:"premium_days"`
	PremiumUntil  *time.Time      `json:"premium_until"`
	TokensGranted int64           `json:"tokens_granted"`
}

// DonationHistoryItem is a completed donation shown to its donor
type DonationHistoryItem struct {
	Reference     string          `json:"reference"`
	NonprofitId   string          `json:"nonprofit_id"`
	NonprofitName string          `json:"nonprofit_name"`
	Amount        decimal.Decimal `json:"amount"`
	PremiumDays   int             `json:"premium_days"`
	PremiumUntil  *time.Time      `json:"premium_until"`
	TokensGranted int64           `json:"tokens_granted"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DonationResult represents the result of processing a completion notification.
// Ignored is set for notifications that do not confirm a donation.
type DonationResult struct {
	Success          bool            `json:"success"`
	Ignored          bool            `json:"ignored"`
	AlreadyCompleted bool            `json:"already_completed"`
	UserId           string          `json:"user_id,omitempty"`
	Reference        string          `json:"reference,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	TokensGranted    int64           `json:"tokens_granted"`
	PremiumDays      int             `json:"premium_days"`
	PremiumUntil     *time.Time      `json:"premium_until,omitempty"`
	NewBalance       int64           `json:"new_balance"`
}

// RecordViewRequest is sent when a user opens a content item
type RecordViewRequest struct {
	ExperienceId   string `json:"experienceId" binding:"required"`
	ExperienceType string `json:"experienceType"`
}

// ViewResult is the quota decision for a single view. RemainingViews is an
// integer for free users and the string "unlimited" for premium users.
type ViewResult struct {
	CanView        bool `json:"canView"`
	IsLimitReached bool `json:"isLimitReached"`
	RemainingViews any  `json:"remainingViews"`
	IsPremium      bool `json:"isPremium"`
}

// ViewStatus exposes the quota without recording a view
type ViewStatus struct {
	ViewedToday    int  `json:"viewedToday"`
	DailyLimit     int  `json:"dailyLimit"`
	RemainingViews any  `json:"remainingViews"`
	IsLimitReached bool `json:"isLimitReached"`
	IsPremium      bool `json:"isPremium"`
}
