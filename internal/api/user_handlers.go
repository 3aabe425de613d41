package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/users/",
		Summary:       "Create user",
		Description:   "Registers a new account",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "createToken",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/users/token/",
		Summary:     "Create token",
		Description: "Exchanges email and password for an API token",
		Tags:        []string{"Users"},
		Middlewares: huma.Middlewares{s.limitByIP},
	}, s.handleCreateToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMe",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/users/me/",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleGetMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMe",
		Method:      http.MethodPatch,
		Path:        apiPrefix + "/users/me/",
		Summary:     "Update current user",
		Description: "Updates the authenticated user's name, email or password",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleUpdateMe)
}

// === DTOs ===

// UserResponse is the public view of an account. The password never leaves the server.
type UserResponse struct {
	Email string `json:"email" doc:"Email address"`
	Name  string `json:"name" doc:"Display name"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// CreateUserRequest is the request body for registration.
type CreateUserRequest struct {
	_        struct{} `json:"-" additionalProperties:"true"`
	Email    string   `json:"email,omitempty" doc:"Email address"`
	Password string   `json:"password,omitempty" doc:"Password, at least 5 characters" writeOnly:"true"`
	Name     string   `json:"name,omitempty" doc:"Display name"`
}

// CreateUserInput wraps the registration request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// CreateTokenRequest is the request body for token creation.
type CreateTokenRequest struct {
	_        struct{} `json:"-" additionalProperties:"true"`
	Email    string   `json:"email,omitempty" doc:"Email address"`
	Password string   `json:"password,omitempty" doc:"Password" writeOnly:"true"`
}

// CreateTokenInput wraps the token request for Huma.
type CreateTokenInput struct {
	Body CreateTokenRequest
}

// TokenResponse carries a newly issued token.
type TokenResponse struct {
	Token string `json:"token" doc:"Send as 'Authorization: Bearer <token>' or 'Token <token>'"`
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	Body TokenResponse
}

// UpdateMeRequest is the request body for a profile update. Absent fields are unchanged.
type UpdateMeRequest struct {
	_        struct{} `json:"-" additionalProperties:"true"`
	Email    *string  `json:"email,omitempty" doc:"Email address"`
	Password *string  `json:"password,omitempty" doc:"New password, at least 5 characters" writeOnly:"true"`
	Name     *string  `json:"name,omitempty" doc:"Display name"`
}

// UpdateMeInput wraps the profile update for Huma.
type UpdateMeInput struct {
	Body UpdateMeRequest
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	user, err := s.services.Users.Register(ctx, service.RegisterRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleCreateToken(ctx context.Context, input *CreateTokenInput) (*TokenOutput, error) {
	token, err := s.services.Auth.IssueToken(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &TokenOutput{Body: TokenResponse{Token: token}}, nil
}

func (s *Server) handleGetMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleUpdateMe(ctx context.Context, input *UpdateMeInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.UpdateProfile(ctx, userID, service.UpdateProfileRequest{
		Email:    input.Body.Email,
		Name:     input.Body.Name,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		Email: u.Email,
		Name:  u.Name,
	}
}
