package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/validation"
)

type testUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5,max=1024"`
	Name     string `json:"name" validate:"required"`
}

type testRecipeRequest struct {
	Title string          `json:"title" validate:"required,max=255"`
	Price decimal.Decimal `json:"price" validate:"price"`
	Link  string          `json:"link" validate:"omitempty,httpurl,max=255"`
	Tags  []string        `json:"tags" validate:"dive,required,max=255"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testUserRequest{
		Email:    "test@example.com",
		Password: "pass123",
		Name:     "Test User",
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       testUserRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing required field",
			req:       testUserRequest{Email: "test@example.com", Password: "pass123"},
			wantField: "name",
			wantMsg:   "is required",
		},
		{
			name:      "invalid email",
			req:       testUserRequest{Email: "not-an-email", Password: "pass123", Name: "Test"},
			wantField: "email",
			wantMsg:   "must be a valid email address",
		},
		{
			name:      "password too short",
			req:       testUserRequest{Email: "test@example.com", Password: "pw", Name: "Test"},
			wantField: "password",
			wantMsg:   "must be at least 5 characters",
		},
		{
			name:      "password too long",
			req:       testUserRequest{Email: "test@example.com", Password: string(make([]byte, 1025)), Name: "Test"},
			wantField: "password",
			wantMsg:   "must not exceed 1024 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.True(t, errors.Is(err, domainerrors.ErrValidation))

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_RecipeFields(t *testing.T) {
	v := validation.New()

	valid := testRecipeRequest{
		Title: "Sample recipe",
		Price: decimal.RequireFromString("5.25"),
		Link:  "https://www.example.com/recipe.pdf",
		Tags:  []string{"Vegan"},
	}
	assert.NoError(t, v.Validate(valid))

	bad := valid
	bad.Price = decimal.RequireFromString("5.255")
	bad.Link = "ftp://example.com"
	bad.Tags = []string{"Vegan", ""}

	err := v.Validate(bad)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "price")
	assert.Equal(t, "must be a valid URL", details["link"])
	assert.Equal(t, "is required", details["tags[1]"])
}

func TestValidPrice(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"5.25", true},
		{"0", true},
		{"999.99", true},
		{"12", true},
		{"1000.00", false},
		{"5.255", false},
		{"-1.00", false},
		{"abc", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, validation.ValidPrice(tt.input))
		})
	}
}

func TestValidHTTPURL(t *testing.T) {
	assert.True(t, validation.ValidHTTPURL("https://www.example.com/recipe.pdf"))
	assert.True(t, validation.ValidHTTPURL("http://localhost:8000/x"))
	assert.False(t, validation.ValidHTTPURL("www.example.com"))
	assert.False(t, validation.ValidHTTPURL("javascript:alert(1)"))
	assert.False(t, validation.ValidHTTPURL(""))
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(testUserRequest{Password: "pass123", Name: "Test"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "email")
	assert.NotContains(t, details, "Email")
}
