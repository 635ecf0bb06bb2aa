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

	"stash-premium-go/internal/api"
	"stash-premium-go/internal/auth"
	"stash-premium-go/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Service  *api.LedgerService
	Verifier auth.Verifier
	Webhook  *auth.WebhookAuthenticator
	Metrics  *metrics.Metrics
	// MetricsEnabled exposes GET /metrics.
	MetricsEnabled bool
}

type Server struct {
	service  *api.LedgerService
	verifier auth.Verifier
	webhook  *auth.WebhookAuthenticator
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// NewRouter builds the gin engine serving the public API, the donation
// webhook, health and metrics.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Service == nil {
		return nil, errors.New("router requires a ledger service")
	}
	if deps.Verifier == nil {
		return nil, errors.New("router requires a token verifier")
	}
	if deps.Webhook == nil {
		return nil, errors.New("router requires a webhook authenticator")
	}

	s := &Server{
		service:  deps.Service,
		verifier: deps.Verifier,
		webhook:  deps.Webhook,
		metrics:  deps.Metrics,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	router := gin.New()
	router.Use(recovery(zap.L()), requestLogger(zap.L()))

	router.GET("/health", s.health)
	if deps.MetricsEnabled && deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	apiGroup := router.Group("/api")
	apiGroup.POST("/webhooks/donations", s.donationWebhook)

	authed := apiGroup.Group("")
	authed.Use(requireIdentity(s.verifier))
	{
		authed.GET("/tokens", s.getTokens)
		authed.POST("/tokens", s.spendTokens)
		authed.GET("/transactions", s.getTransactions)
		authed.POST("/donations", s.createDonation)
		authed.GET("/donations", s.listDonations)
		authed.GET("/donations/status", s.donationStatus)
		authed.POST("/views", s.recordView)
		authed.GET("/views/status", s.viewStatus)
	}

	return router, nil
}

func (s *Server) health(c *gin.Context) {
	if err := s.service.HealthCheck(c.Request.Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
