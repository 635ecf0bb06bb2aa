package server

import (
	"time"

	"stash-premium-go/internal/auth"
	"stash-premium-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIdKey = "user_id"

// requestLogger logs one line per request, at a level chosen by status.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userId := c.GetString(userIdKey); userId != "" {
			fields = append(fields, zap.String("user_id", userId))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Debug("HTTP request", fields...)
		}
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"))
				abortWithError(c, 500, "internal server error")
			}
		}()
		c.Next()
	}
}

// requireIdentity resolves the bearer token into an identity and attaches it
// to both the gin and the request context.
func requireIdentity(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader(auth.AuthHeaderKey))
		if err != nil {
			respondError(c, err)
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(userIdKey, identity.UserId)
		c.Request = c.Request.WithContext(models.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

func currentUserId(c *gin.Context) string {
	if identity := models.GetIdentity(c.Request.Context()); identity != nil {
		return identity.UserId
	}
	return c.GetString(userIdKey)
}
