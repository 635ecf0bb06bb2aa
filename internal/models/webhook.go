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
	"github.com/shopspring/decimal"
)

// Webhook event and status values sent by the donation processor
const (
	WebhookEventDonationCompleted = "donation.completed"
	WebhookStatusSucceeded        = "SUCCEEDED"
)

// DonationWebhook is the envelope posted by the donation processor
type DonationWebhook struct {
	Event string              `json:"event" validate:"required"`
	Data  DonationWebhookData `json:"data"`
}

// DonationWebhookData carries the processor's view of a donation.
// Amount is expressed in minor units (cents).
type DonationWebhookData struct {
	DonationId    string                  `json:"donationId"`
	Reference     string                  `json:"reference" validate:"required"`
	Status        string                  `json:"status" validate:"required"`
	Amount        int64                   `json:"amount" validate:"gt=0"`
	Currency      string                  `json:"currency"`
	NonprofitId   string                  `json:"nonprofitId"`
	NonprofitName string                  `json:"nonprofitName"`
	Metadata      DonationWebhookMetadata `json:"metadata"`
}

// DonationWebhookMetadata is echoed back from the donation request
type DonationWebhookMetadata struct {
	UserId string `json:"userId"`
}

// AmountDollars converts the minor-unit amount to dollars.
func (d DonationWebhookData) AmountDollars() decimal.Decimal {
	return decimal.NewFromInt(d.Amount).Shift(-2)
}

// IsSuccess reports whether the notification confirms a completed donation.
func (w DonationWebhook) IsSuccess() bool {
	return w.Event == WebhookEventDonationCompleted && w.Data.Status == WebhookStatusSucceeded
}

// WebhookResponse is returned to the processor
type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
