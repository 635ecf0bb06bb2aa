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

	"stash-premium-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordView checks the daily quota and records the view in one transaction.
// Re-viewing an item already seen that day never consumes quota.
func (s *Service) RecordView(ctx context.Context, params store.RecordViewParams) (*store.RecordViewResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.dialect.driver == driverPostgres {
		if _, err := tx.ExecContext(ctx, s.q(queryLockUserViews), "views:"+params.UserId); err != nil {
			return nil, fmt.Errorf("failed to lock view quota: %w", err)
		}
	}

	var viewed, sameItem int
	if err := tx.QueryRowContext(ctx, s.q(queryCountViewsForDay), params.UserId, params.ViewDate).Scan(&viewed); err != nil {
		return nil, fmt.Errorf("failed to count views: %w", err)
	}
	if err := tx.QueryRowContext(ctx, s.q(queryCountItemViewsForDay), params.UserId, params.ExperienceId, params.ViewDate).Scan(&sameItem); err != nil {
		return nil, fmt.Errorf("failed to check prior view: %w", err)
	}

	result := &store.RecordViewResult{
		ViewedBefore:  viewed,
		AlreadyViewed: sameItem > 0,
	}

	result.EffectiveCount = viewed
	if result.AlreadyViewed {
		result.EffectiveCount = viewed - 1
	}
	if params.Unlimited {
		result.CanView = true
	} else {
		result.IsLimitReached = result.EffectiveCount >= params.DailyLimit
		result.CanView = !result.IsLimitReached || result.AlreadyViewed
	}

	if result.CanView && !result.AlreadyViewed {
		res, err := tx.ExecContext(ctx, s.q(queryInsertView),
			uuid.New().String(), params.UserId, params.ExperienceId, params.ExperienceType,
			params.ViewDate, params.Now.UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to record view: %w", err)
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check rows affected: %w", err)
		}
		result.Recorded = rowsAffected > 0
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.DistinctAfter = viewed
	if result.Recorded {
		result.DistinctAfter++
	}

	zap.L().Debug("View processed",
		zap.String("user_id", params.UserId),
		zap.String("experience_id", params.ExperienceId),
		zap.String("view_date", params.ViewDate),
		zap.Bool("can_view", result.CanView),
		zap.Bool("already_viewed", result.AlreadyViewed),
		zap.Int("distinct_after", result.DistinctAfter))

	return result, nil
}

// CountViews returns the number of distinct items a user viewed on a day
func (s *Service) CountViews(ctx context.Context, userId, viewDate string) (int, error) {
	var viewed int
	if err := s.db.QueryRowContext(ctx, s.q(queryCountViewsForDay), userId, viewDate).Scan(&viewed); err != nil {
		return 0, fmt.Errorf("failed to count views: %w", err)
	}
	return viewed, nil
}
