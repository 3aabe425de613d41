package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"aidanwoods.dev/go-paseto"
)

const (
	tokenIssuer   = "recipebox-server"
	tokenAudience = "recipebox-client"
)

// TokenService seals token keys into PASETO v4.local tokens and opens them again.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
}

// NewTokenService creates a token service from a hex-encoded 32-byte key.
// Issued tokens expire after duration, or earlier when their key row is deleted.
func NewTokenService(keyHex string, duration time.Duration) (*TokenService, error) {
	if duration <= 0 {
		return nil, errors.New("token duration must be positive")
	}
	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters (%d bytes), got %d", keyHexLength, keyLength, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{symmetricKey: key, duration: duration}, nil
}

// Seal creates an encrypted token referencing the key row of userID.
func (s *TokenService) Seal(key string, userID int64) string {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(strconv.FormatInt(userID, 10))
	token.SetJti(key)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.duration))

	return token.V4Encrypt(s.symmetricKey, nil)
}

// Open decrypts and checks a token, returning its claims.
func (s *TokenService) Open(tokenString string) (*Claims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	key, err := token.GetJti()
	if err != nil || key == "" {
		return nil, errors.New("invalid token: missing key")
	}
	sub, err := token.GetSubject()
	if err != nil {
		return nil, errors.New("invalid token: missing subject")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject: %w", err)
	}

	claims := &Claims{Key: key, UserID: userID}
	if iat, err := token.GetIssuedAt(); err == nil {
		claims.IssuedAt = iat
	}
	if exp, err := token.GetExpiration(); err == nil {
		claims.ExpiresAt = exp
	}
	return claims, nil
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}
