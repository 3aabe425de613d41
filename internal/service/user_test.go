package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipebox/recipebox-server/internal/auth"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
)

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, domainerrors.CodeValidation, derr.Code)
	details, ok := derr.Details.(map[string]string)
	require.True(t, ok, "details should be a field map, got %T", derr.Details)
	return details
}

func TestRegister_Success(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)
	ctx := context.Background()

	user, err := env.users.Register(ctx, RegisterRequest{
		Email:    "test@example.com",
		Password: "testpass123",
		Name:     "Test Name",
	})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.NotEqual(t, "testpass123", user.PasswordHash)

	ok, err := auth.VerifyPassword(user.PasswordHash, "testpass123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_NormalizesEmailDomain(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)
	ctx := context.Background()

	tests := []struct {
		input    string
		expected string
	}{
		{"test1@EXAMPLE.com", "test1@example.com"},
		{"Test2@Example.com", "Test2@example.com"},
		{"TEST3@EXAMPLE.COM", "TEST3@example.com"},
		{"test4@example.COM", "test4@example.com"},
	}

	for _, tt := range tests {
		user, err := env.users.Register(ctx, RegisterRequest{Email: tt.input, Password: "sample123", Name: "n"})
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, user.Email)
	}
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"empty email", RegisterRequest{Email: "", Password: "sample123", Name: "n"}, "email"},
		{"invalid email", RegisterRequest{Email: "not-an-email", Password: "sample123", Name: "n"}, "email"},
		{"short password", RegisterRequest{Email: "test@example.com", Password: "pw", Name: "n"}, "password"},
		{"missing name", RegisterRequest{Email: "test@example.com", Password: "sample123"}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupServices(t, TokenPolicyReuse)
			ctx := context.Background()

			_, err := env.users.Register(ctx, tt.req)
			details := validationDetails(t, err)
			assert.Contains(t, details, tt.field)

			count, err := env.store.CountUsers(ctx)
			require.NoError(t, err)
			assert.Zero(t, count, "no user should be created")
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)
	ctx := context.Background()
	env.createUser(t, "test@example.com")

	_, err := env.users.Register(ctx, RegisterRequest{
		Email:    "test@EXAMPLE.com",
		Password: "otherpass",
		Name:     "Other",
	})
	details := validationDetails(t, err)
	assert.Equal(t, "user with this email already exists", details["email"])
}

func TestCreateSuperuser(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)

	user, err := env.users.CreateSuperuser(context.Background(), RegisterRequest{
		Email:    "admin@example.com",
		Password: "adminpass",
		Name:     "Admin",
	})
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsActive)
}

func TestUpdateProfile(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)
	ctx := context.Background()
	user := env.createUser(t, "test@example.com")

	updated, err := env.users.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Name:     ptr("Updated Name"),
		Password: ptr("newpassword123"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", updated.Name)
	assert.Equal(t, "test@example.com", updated.Email)

	stored, err := env.users.Get(ctx, user.ID)
	require.NoError(t, err)
	ok, err := auth.VerifyPassword(stored.PasswordHash, "newpassword123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateProfile_ShortPassword(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)
	ctx := context.Background()
	user := env.createUser(t, "test@example.com")

	_, err := env.users.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Password: ptr("abc")})
	details := validationDetails(t, err)
	assert.Contains(t, details, "password")

	stored, err := env.users.Get(ctx, user.ID)
	require.NoError(t, err)
	ok, err := auth.VerifyPassword(stored.PasswordHash, "testpass123")
	require.NoError(t, err)
	assert.True(t, ok, "password should be unchanged")
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)
	ctx := context.Background()
	env.createUser(t, "taken@example.com")
	user := env.createUser(t, "test@example.com")

	_, err := env.users.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Email: ptr("taken@Example.com")})
	details := validationDetails(t, err)
	assert.Contains(t, details, "email")
}

func TestUpdateProfile_KeepsUnnamedColumns(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)
	ctx := context.Background()
	user := env.createUser(t, "test@example.com")

	_, err := env.auth.IssueToken(ctx, LoginRequest{Email: "test@example.com", Password: "testpass123"})
	require.NoError(t, err)

	updated, err := env.users.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Name: ptr("  Renamed  ")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.NotNil(t, updated.LastLoginAt, "last login must not be cleared")
	assert.Equal(t, user.PasswordHash, updated.PasswordHash)
}

func TestUpdateProfile_NotFound(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)

	_, err := env.users.UpdateProfile(context.Background(), 999, UpdateProfileRequest{Name: ptr("Ghost")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSetActive(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)
	ctx := context.Background()
	env.createUser(t, "test@example.com")
	req := LoginRequest{Email: "test@example.com", Password: "testpass123"}

	user, err := env.users.SetActive(ctx, "test@EXAMPLE.com", false)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	_, err = env.auth.IssueToken(ctx, req)
	require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.users.SetActive(ctx, "test@example.com", true)
	require.NoError(t, err)
	_, err = env.auth.IssueToken(ctx, req)
	assert.NoError(t, err)

	_, err = env.users.SetActive(ctx, "nobody@example.com", false)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCount(t *testing.T) {
	env := setupServices(t, TokenPolicyReuse)
	ctx := context.Background()

	n, err := env.users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.createUser(t, "a@example.com")
	env.createUser(t, "b@example.com")

	n, err = env.users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
