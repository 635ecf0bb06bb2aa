package server

import (
	"errors"
	"net/http"

	"stash-premium-go/internal/api"
	"stash-premium-go/internal/auth"
	"stash-premium-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInternal = "internal server error"

// respondError maps service errors onto status codes. Validation messages are
// returned as is; upstream failures are logged and replaced with a generic body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, api.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, api.ErrInvalidTier):
		abortWithError(c, http.StatusBadRequest, "invalid tier amount")
	case errors.Is(err, store.ErrInsufficientFunds):
		abortWithError(c, http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, store.ErrAlreadyPremium):
		abortWithError(c, http.StatusBadRequest, "premium already active")
	case errors.Is(err, api.ErrReferenceNotFound):
		abortWithError(c, http.StatusNotFound, "donation not found")
	case errors.Is(err, auth.ErrMissingToken):
		abortWithError(c, http.StatusUnauthorized, "missing bearer token")
	case errors.Is(err, auth.ErrInvalidToken):
		abortWithError(c, http.StatusUnauthorized, "invalid token")
	default:
		zap.L().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, msgInternal)
	}
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
