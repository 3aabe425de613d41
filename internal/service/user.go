package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/normalize"
	"github.com/recipebox/recipebox-server/internal/store"
)

// MinPasswordLength is the shortest password accepted for an account.
const MinPasswordLength = 5

const msgEmailTaken = "user with this email already exists"

// UserService manages user accounts.
type UserService struct {
	store  store.Store
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store store.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=1024"`
	Name     string `json:"name" validate:"required,max=255"`
}

// UpdateProfileRequest contains a partial profile update. Nil fields are unchanged.
type UpdateProfileRequest struct {
	Email    *string
	Name     *string
	Password *string
}

// profileFields is the validated state of a profile after an update.
type profileFields struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"required,max=255"`
}

type passwordField struct {
	Password string `json:"password" validate:"required,min=5,max=1024"`
}

// Register creates a regular, active user.
// The email is stored with its domain lowercased.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	return s.create(ctx, req, false)
}

// CreateSuperuser creates an active user with staff and superuser flags set.
func (s *UserService) CreateSuperuser(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	return s.create(ctx, req, true)
}

func (s *UserService) create(ctx context.Context, req RegisterRequest, superuser bool) (*domain.User, error) {
	req.Email = normalize.Email(req.Email)
	req.Name = normalize.Name(req.Name)

	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.FieldError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created",
		"user_id", user.ID,
		"superuser", superuser,
	)

	return user, nil
}

// Get returns the user with the given ID.
func (s *UserService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the user's own profile.
// A new password is hashed; the password is never returned.
// Only the columns named in req are written, so concurrent edits of other
// columns (including a login stamping last_login_at) are not reverted.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.User, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var upd domain.ProfileUpdate
	merged := profileFields{Email: current.Email, Name: current.Name}
	if req.Email != nil {
		email := normalize.Email(*req.Email)
		upd.Email = &email
		merged.Email = email
	}
	if req.Name != nil {
		name := normalize.Name(*req.Name)
		upd.Name = &name
		merged.Name = name
	}
	if err := validate.Validate(merged); err != nil {
		return nil, err
	}

	if req.Password != nil {
		if err := validate.Validate(passwordField{Password: *req.Password}); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		upd.PasswordHash = &hash
	}

	user, err := s.store.UpdateProfile(ctx, userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.FieldError("email", msgEmailTaken)
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("profile updated",
		"user_id", user.ID,
		"password_changed", req.Password != nil,
	)

	return user, nil
}

// SetActive enables or disables login for the account with the given email.
// Disabling an account also stops its existing tokens from authenticating.
func (s *UserService) SetActive(ctx context.Context, email string, active bool) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, normalize.Email(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.store.SetUserActive(ctx, user.ID, active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("set user active: %w", err)
	}
	user.IsActive = active

	s.logger.Info("user activation changed",
		"user_id", user.ID,
		"active", active,
	)

	return user, nil
}

// Count returns the number of accounts on the server.
func (s *UserService) Count(ctx context.Context) (int, error) {
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
