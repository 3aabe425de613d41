package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/id"
	"github.com/recipebox/recipebox-server/internal/normalize"
	"github.com/recipebox/recipebox-server/internal/store"
)

// TokenPolicy controls what happens to a user's token key when they log in again.
type TokenPolicy string

const (
	// TokenPolicyReuse keeps the existing key, so earlier tokens stay valid.
	TokenPolicyReuse TokenPolicy = "reuse"
	// TokenPolicyRotate replaces the key, revoking earlier tokens.
	TokenPolicyRotate TokenPolicy = "rotate"
)

// msgBadCredentials is deliberately identical for every login failure.
const msgBadCredentials = "Unable to authenticate with provided credentials"

// AuthService issues and verifies API tokens.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	policy       TokenPolicy
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	policy TokenPolicy,
	logger *slog.Logger,
) *AuthService {
	if policy == "" {
		policy = TokenPolicyReuse
	}
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		policy:       policy,
		logger:       logger,
	}
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IssueToken verifies the credentials and returns an API token.
//
// Unknown email, wrong or blank password, and inactive accounts all fail with
// the same INVALID_CREDENTIALS error so callers cannot probe for accounts.
func (s *AuthService) IssueToken(ctx context.Context, req LoginRequest) (string, error) {
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		return "", domainerrors.InvalidCredentials(msgBadCredentials)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			auth.BurnVerify(req.Password)
			return "", domainerrors.InvalidCredentials(msgBadCredentials)
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !valid || !user.CanAuthenticate() {
		return "", domainerrors.InvalidCredentials(msgBadCredentials)
	}

	newKey, err := id.Key()
	if err != nil {
		return "", fmt.Errorf("generate token key: %w", err)
	}

	tok, err := s.store.IssueToken(ctx, user.ID, newKey, s.policy == TokenPolicyRotate)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	if err := s.store.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		// Log but don't fail login
		s.logger.Warn("failed to update last login time",
			"user_id", user.ID,
			"error", err,
		)
	}

	s.logger.Info("token issued",
		"user_id", user.ID,
		"policy", string(s.policy),
		"new_key", tok.Key == newKey,
	)

	return s.tokenService.Seal(tok.Key, user.ID), nil
}

// Authenticate resolves a presented token to its active user.
// Returns an UNAUTHORIZED error for anything that is not a live token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenService.Open(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid token")
	}

	tok, err := s.store.GetToken(ctx, claims.Key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid token")
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if tok.UserID != claims.UserID {
		return nil, domainerrors.Unauthorized("invalid token")
	}

	user, err := s.store.GetUser(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("user inactive or deleted")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.CanAuthenticate() {
		return nil, domainerrors.Unauthorized("user inactive or deleted")
	}

	return user, nil
}
