package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"stash-premium-go/internal/api"
	"stash-premium-go/internal/auth"
	"stash-premium-go/internal/metrics"
	"stash-premium-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// donationWebhook authenticates the raw body before decoding it. Anything but
// a 2xx makes the processor retry, so replays and non-success events are
// acknowledged with 200.
func (s *Server) donationWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		s.metrics.WebhookDelivery(metrics.OutcomeInvalid)
		webhookReply(c, http.StatusBadRequest, false, "unreadable body")
		return
	}

	if err := s.webhook.Authenticate(c.Request.Header, body); err != nil {
		if errors.Is(err, auth.ErrWebhookNotConfigured) {
			zap.L().Error("Rejected webhook: no webhook secret or token configured")
		} else {
			zap.L().Warn("Rejected webhook with bad credentials", zap.String("client_ip", c.ClientIP()))
		}
		s.metrics.WebhookDelivery(metrics.OutcomeUnauthorized)
		webhookReply(c, http.StatusUnauthorized, false, "unauthorized")
		return
	}

	var payload models.DonationWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		s.metrics.WebhookDelivery(metrics.OutcomeInvalid)
		webhookReply(c, http.StatusBadRequest, false, "malformed payload")
		return
	}
	// Only confirmations need a complete payload; anything else is acknowledged.
	if payload.IsSuccess() {
		if err := s.validate.Struct(payload); err != nil {
			zap.L().Warn("Webhook payload failed validation", zap.Error(err))
			s.metrics.WebhookDelivery(metrics.OutcomeInvalid)
			webhookReply(c, http.StatusBadRequest, false, "invalid payload")
			return
		}
	}

	result, err := s.service.ProcessDonationWebhook(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, api.ErrReferenceNotFound) {
			s.metrics.WebhookDelivery(metrics.OutcomeNotFound)
			webhookReply(c, http.StatusNotFound, false, "donation reference not found")
			return
		}
		if errors.Is(err, api.ErrValidation) {
			s.metrics.WebhookDelivery(metrics.OutcomeInvalid)
			webhookReply(c, http.StatusBadRequest, false, err.Error())
			return
		}
		zap.L().Error("Failed to process donation webhook",
			zap.String("reference", payload.Data.Reference),
			zap.Error(err))
		s.metrics.WebhookDelivery(metrics.OutcomeError)
		webhookReply(c, http.StatusInternalServerError, false, msgInternal)
		return
	}

	switch {
	case result.Ignored:
		s.metrics.WebhookDelivery(metrics.OutcomeIgnored)
		webhookReply(c, http.StatusOK, true, "ignored")
	case result.AlreadyCompleted:
		s.metrics.WebhookDelivery(metrics.OutcomeReplayed)
		webhookReply(c, http.StatusOK, true, "already processed")
	default:
		s.metrics.WebhookDelivery(metrics.OutcomeCompleted)
		webhookReply(c, http.StatusOK, true, "donation processed")
	}
}

func webhookReply(c *gin.Context, status int, success bool, message string) {
	c.AbortWithStatusJSON(status, models.WebhookResponse{Success: success, Message: message})
}
