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
	"context"
	"fmt"
	"strings"

	"stash-premium-go/internal/models"
	"stash-premium-go/internal/store"

	"go.uber.org/zap"
)

const viewDateLayout = "2006-01-02"

// RecordView decides whether a user may open a content item and records the
// view. Premium users are never limited; their views are still recorded.
func (s *LedgerService) RecordView(ctx context.Context, userId string, req models.RecordViewRequest) (*models.ViewResult, error) {
	if userId == "" {
		return nil, validationError("user_id is required")
	}
	experienceId := strings.TrimSpace(req.ExperienceId)
	if experienceId == "" {
		return nil, validationError("experienceId is required")
	}
	experienceType, err := normalizeExperienceType(req.ExperienceType)
	if err != nil {
		return nil, err
	}

	now := s.now()
	premium, err := s.IsPremium(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to check premium status", zap.String("user_id", userId), zap.Error(err))
		return nil, err
	}

	limit := s.rewards.DailyFreeViews()
	result, err := s.store.RecordView(ctx, store.RecordViewParams{
		UserId:         userId,
		ExperienceId:   experienceId,
		ExperienceType: experienceType,
		ViewDate:       now.UTC().Format(viewDateLayout),
		DailyLimit:     limit,
		Unlimited:      premium,
		Now:            now,
	})
	if err != nil {
		zap.L().Error("Failed to record view",
			zap.String("user_id", userId),
			zap.String("experience_id", experienceId),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record view: %w", err)
	}

	if premium {
		return &models.ViewResult{
			CanView:        true,
			RemainingViews: models.RemainingUnlimited,
			IsPremium:      true,
		}, nil
	}

	return &models.ViewResult{
		CanView:        result.CanView,
		IsLimitReached: result.IsLimitReached,
		RemainingViews: max(0, limit-result.DistinctAfter),
	}, nil
}

// GetViewStatus reports today's quota without recording anything
func (s *LedgerService) GetViewStatus(ctx context.Context, userId string) (*models.ViewStatus, error) {
	if userId == "" {
		return nil, validationError("user_id is required")
	}

	premium, err := s.IsPremium(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to check premium status", zap.String("user_id", userId), zap.Error(err))
		return nil, err
	}

	viewed, err := s.store.CountViews(ctx, userId, s.now().UTC().Format(viewDateLayout))
	if err != nil {
		zap.L().Error("Failed to count views", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve view status: %w", err)
	}

	limit := s.rewards.DailyFreeViews()
	status := &models.ViewStatus{
		ViewedToday: viewed,
		DailyLimit:  limit,
		IsPremium:   premium,
	}
	if premium {
		status.RemainingViews = models.RemainingUnlimited
		return status, nil
	}
	status.RemainingViews = max(0, limit-viewed)
	status.IsLimitReached = viewed >= limit
	return status, nil
}

func normalizeExperienceType(experienceType string) (string, error) {
	switch strings.TrimSpace(experienceType) {
	case "":
		return models.ExperienceTypeInterview, nil
	case models.ExperienceTypeInterview:
		return models.ExperienceTypeInterview, nil
	case models.ExperienceTypeGeneralPost:
		return models.ExperienceTypeGeneralPost, nil
	default:
		return "", validationError("experienceType must be %q or %q", models.ExperienceTypeInterview, models.ExperienceTypeGeneralPost)
	}
}
