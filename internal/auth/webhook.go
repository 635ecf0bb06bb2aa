package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

const signaturePrefix = "sha256="

var (
	ErrWebhookUnauthorized  = errors.New("webhook authentication failed")
	ErrWebhookNotConfigured = errors.New("webhook authentication not configured")
)

// WebhookAuthenticator accepts a processor delivery carrying either the
// static bearer token or an HMAC-SHA256 signature of the raw body.
type WebhookAuthenticator struct {
	secret          []byte
	token           []byte
	signatureHeader string
}

func NewWebhookAuthenticator(secret, token, signatureHeader string) *WebhookAuthenticator {
	if signatureHeader == "" {
		signatureHeader = "X-Every-Signature"
	}
	return &WebhookAuthenticator{
		secret:          []byte(secret),
		token:           []byte(token),
		signatureHeader: signatureHeader,
	}
}

// Authenticate must run on the exact bytes received, before decoding.
func (a *WebhookAuthenticator) Authenticate(header http.Header, body []byte) error {
	if len(a.secret) == 0 && len(a.token) == 0 {
		return ErrWebhookNotConfigured
	}

	if len(a.token) > 0 {
		if token, err := BearerToken(header.Get(AuthHeaderKey)); err == nil &&
			subtle.ConstantTimeCompare([]byte(token), a.token) == 1 {
			return nil
		}
	}

	if len(a.secret) > 0 {
		signature := strings.TrimPrefix(strings.TrimSpace(header.Get(a.signatureHeader)), signaturePrefix)
		if signature != "" {
			provided, err := hex.DecodeString(signature)
			if err == nil && hmac.Equal(provided, a.mac(body)) {
				return nil
			}
		}
	}

	return ErrWebhookUnauthorized
}

// Sign returns the hex signature the processor would send for body.
func (a *WebhookAuthenticator) Sign(body []byte) string {
	return hex.EncodeToString(a.mac(body))
}

func (a *WebhookAuthenticator) SignatureHeader() string {
	return a.signatureHeader
}

func (a *WebhookAuthenticator) mac(body []byte) []byte {
	h := hmac.New(sha256.New, a.secret)
	h.Write(body)
	return h.Sum(nil)
}
