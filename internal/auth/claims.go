package auth

import (
	"strings"
	"time"
)

// Claims are the values carried inside an issued token.
// Key references the persisted token row; the token is only honoured while that row exists.
type Claims struct {
	Key       string
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Authorization header schemes accepted for API tokens.
const (
	SchemeBearer = "Bearer"
	SchemeToken  = "Token"
)

// TokenFromHeader extracts the token from an Authorization header value.
// Both "Bearer <token>" and "Token <token>" are accepted, case-insensitively on the scheme.
func TokenFromHeader(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, SchemeBearer) && !strings.EqualFold(scheme, SchemeToken) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
