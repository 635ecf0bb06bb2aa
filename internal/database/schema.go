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

package database

import (
	"context"
	"fmt"
	"strings"
)

const schemaTemplate = `
	-- Ledger (current state - one row per user, created lazily)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		user_id TEXT PRIMARY KEY,
		coins BIGINT NOT NULL DEFAULT 0 CHECK (coins >= 0),
		premium_until {{timestamp}},
		version BIGINT NOT NULL DEFAULT 1,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL
	);

	-- Token transactions (append-only audit trail)
	CREATE TABLE IF NOT EXISTS token_transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount BIGINT NOT NULL CHECK (amount > 0),
		transaction_type TEXT NOT NULL,
		description TEXT NOT NULL,
		source TEXT NOT NULL,
		reference_id TEXT NOT NULL DEFAULT '',
		created_at {{timestamp}} NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_token_transactions_user_created ON token_transactions(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_token_transactions_reference ON token_transactions(reference_id);

	-- Donation intents (one per checkout attempt)
	CREATE TABLE IF NOT EXISTS donation_intents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		donation_reference TEXT NOT NULL UNIQUE,
		amount TEXT NOT NULL,
		nonprofit_id TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at {{timestamp}} NOT NULL,
		updated_at {{timestamp}} NOT NULL,
		completed_at {{timestamp}}
	);

	CREATE INDEX IF NOT EXISTS idx_donation_intents_user ON donation_intents(user_id);
	CREATE INDEX IF NOT EXISTS idx_donation_intents_status_created ON donation_intents(status, created_at);

	-- Donation records (immutable, one per completed donation)
	CREATE TABLE IF NOT EXISTS donation_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		donation_reference TEXT NOT NULL UNIQUE,
		nonprofit_id TEXT NOT NULL,
		nonprofit_name TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		premium_days INTEGER NOT NULL DEFAULT 0,
		premium_until {{timestamp}},
		tokens_granted BIGINT NOT NULL DEFAULT 0,
		created_at {{timestamp}} NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_donation_records_user_created ON donation_records(user_id, created_at);

	-- Experience views (at most one row per user, item and day)
	CREATE TABLE IF NOT EXISTS experience_views (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		experience_id TEXT NOT NULL,
		experience_type TEXT NOT NULL,
		view_date TEXT NOT NULL,
		created_at {{timestamp}} NOT NULL,
		UNIQUE(user_id, experience_id, view_date)
	);

	CREATE INDEX IF NOT EXISTS idx_experience_views_user_date ON experience_views(user_id, view_date);
`

func (d dialect) schema() string {
	return strings.ReplaceAll(schemaTemplate, "{{timestamp}}", d.timestampType)
}

func (s *Service) initSchema(ctx context.Context) error {
	// One statement per Exec so a failure names the offending statement.
	for _, stmt := range strings.Split(s.dialect.schema(), ";") {
		if strings.TrimSpace(stripComments(stmt)) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %q: %w", strings.TrimSpace(stripComments(stmt)), err)
		}
	}
	return nil
}

func stripComments(stmt string) string {
	var kept []string
	for _, line := range strings.Split(stmt, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
