package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/store"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{"success response", "200", map[string]string{"key": "value"}},
		{"created response", "201", map[string]int{"id": 1}},
		{"no content response", "204", nil},
		{"plain error", "400", errors.New("invalid input")},
		{"api error", "409", &APIError{Code: "ALREADY_EXISTS", Message: "exists"}},
		{"domain error", "404", domainerrors.NotFound("Recipe not found")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			jsonBytes, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(jsonBytes, &envelope))

			require.Contains(t, envelope, "v")
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"title": "Soup"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")

	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_DomainErrorKeepsDetails(t *testing.T) {
	domainErr := domainerrors.FieldError("email", "user with this email already exists")

	result, err := EnvelopeTransformer(nil, "400", domainErr)
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "Expected APIErrorEnvelope type")

	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, map[string]string{"email": "user with this email already exists"}, envelope.Details)
}

func TestNewAPIError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		errs       []error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "domain not found",
			status:     http.StatusInternalServerError,
			errs:       []error{domainerrors.NotFound("Recipe not found")},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "wrapped invalid credentials",
			status:     http.StatusInternalServerError,
			errs:       []error{domainerrors.InvalidCredentials("nope").WithCause(errors.New("cause"))},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_CREDENTIALS",
		},
		{
			name:       "store not found",
			status:     http.StatusInternalServerError,
			errs:       []error{store.ErrNotFound},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "schema failure",
			status:     http.StatusUnprocessableEntity,
			errs:       []error{&huma.ErrorDetail{Location: "body.title", Message: "expected string"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			wantStatus: http.StatusTooManyRequests,
			wantCode:   codeRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := newAPIError(tt.status, "message", tt.errs...)
			apiErr, ok := se.(*APIError)
			require.True(t, ok)

			assert.Equal(t, tt.wantStatus, apiErr.GetStatus())
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestFieldDetails_StripsBodyPrefix(t *testing.T) {
	details := fieldDetails("validation failed", []error{
		&huma.ErrorDetail{Location: "body.price", Message: "expected value to match exactly one schema"},
		&huma.ErrorDetail{Location: "body.tags[0].name", Message: "expected string"},
		&huma.ErrorDetail{Location: "body", Message: "unexpected end of JSON input"},
	})

	assert.Equal(t, map[string]string{
		"price":        "expected value to match exactly one schema",
		"tags[0].name": "expected string",
		"body":         "unexpected end of JSON input",
	}, details)
}
