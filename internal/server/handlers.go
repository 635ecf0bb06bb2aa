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

package server

import (
	"errors"
	"net/http"
	"strconv"

	"stash-premium-go/internal/api"
	"stash-premium-go/internal/metrics"
	"stash-premium-go/internal/models"
	"stash-premium-go/internal/store"

	"github.com/gin-gonic/gin"
)

const msgMissingFields = "missing or malformed fields"

func (s *Server) getTokens(c *gin.Context) {
	balance, err := s.service.GetBalance(c.Request.Context(), currentUserId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (s *Server) spendTokens(c *gin.Context) {
	var req models.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgMissingFields)
		return
	}

	balance, err := s.service.SpendForPremium(c.Request.Context(), currentUserId(c), req.Action, req.Amount)
	s.metrics.PremiumPurchase(purchaseOutcome(err))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func purchaseOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomePurchased
	case errors.Is(err, store.ErrInsufficientFunds):
		return metrics.OutcomeInsufficientFunds
	case errors.Is(err, store.ErrAlreadyPremium):
		return metrics.OutcomeAlreadyPremium
	case errors.Is(err, api.ErrInvalidTier):
		return metrics.OutcomeInvalidTier
	case errors.Is(err, api.ErrValidation):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func (s *Server) getTransactions(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "offset must be an integer")
		return
	}

	page, err := s.service.GetTransactionHistory(c.Request.Context(), currentUserId(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func queryInt(c *gin.Context, key string, defaultValue int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) createDonation(c *gin.Context) {
	var req models.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgMissingFields)
		return
	}

	created, err := s.service.CreateDonation(c.Request.Context(), currentUserId(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) listDonations(c *gin.Context) {
	donations, err := s.service.ListDonations(c.Request.Context(), currentUserId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"donations": donations})
}

func (s *Server) donationStatus(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		abortWithError(c, http.StatusBadRequest, "reference is required")
		return
	}

	status, err := s.service.GetDonationStatus(c.Request.Context(), currentUserId(c), reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) recordView(c *gin.Context) {
	var req models.RecordViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgMissingFields)
		return
	}

	result, err := s.service.RecordView(c.Request.Context(), currentUserId(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	switch {
	case result.IsPremium:
		s.metrics.View(metrics.OutcomeUnlimited)
	case result.CanView:
		s.metrics.View(metrics.OutcomeAllowed)
	default:
		s.metrics.View(metrics.OutcomeBlocked)
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) viewStatus(c *gin.Context) {
	status, err := s.service.GetViewStatus(c.Request.Context(), currentUserId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
