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

package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"stash-premium-go/internal/api"
	"stash-premium-go/internal/auth"
	"stash-premium-go/internal/database"
	"stash-premium-go/internal/metrics"
	"stash-premium-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService     *database.Service
	LedgerService *api.LedgerService
	Verifier      auth.Verifier
	Webhook       *auth.WebhookAuthenticator
	Metrics       *metrics.Metrics
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Configuring token verification")
	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("unable to configure auth: %w", err)
	}

	webhook := auth.NewWebhookAuthenticator(cfg.Webhook.Secret, cfg.Webhook.Token, cfg.Webhook.SignatureHeader)
	if cfg.Webhook.Secret == "" && cfg.Webhook.Token == "" {
		zap.L().Warn("Neither WEBHOOK_SECRET nor WEBHOOK_TOKEN is set, every donation webhook will be rejected")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
	}

	ledgerService := api.NewLedgerService(dbService, cfg.Rewards)
	zap.L().Info("Loaded reward policy",
		zap.Int("tiers", len(cfg.Rewards.Tiers)),
		zap.String("min_donation", cfg.Rewards.Donation.MinAmount.String()),
		zap.Int("daily_free_views", cfg.Rewards.DailyFreeViews))

	return &Services{
		DbService:     dbService,
		LedgerService: ledgerService,
		Verifier:      verifier,
		Webhook:       webhook,
		Metrics:       m,
	}, nil
}

// InitializeDatabaseOnly opens the store without auth or metrics.
// Useful for read-only tooling like the balances report.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
