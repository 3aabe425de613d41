package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/store/sqlite"
)

// testEnv bundles services that share one temporary database.
type testEnv struct {
	store       *sqlite.Store
	tokens      *auth.TokenService
	images      *images.Processor
	users       *UserService
	auth        *AuthService
	recipes     *RecipeService
	tags        *AttributeService
	ingredients *AttributeService
}

func setupServices(t *testing.T, policy TokenPolicy) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlite.Open(context.Background(), filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(hex.EncodeToString(key), time.Hour)
	require.NoError(t, err)

	storage, err := images.NewStorage(filepath.Join(tmpDir, "media"))
	require.NoError(t, err)
	processor := images.NewProcessor(storage, logger)

	return &testEnv{
		store:       s,
		tokens:      tokens,
		images:      processor,
		users:       NewUserService(s, logger),
		auth:        NewAuthService(s, tokens, policy, logger),
		recipes:     NewRecipeService(s, processor, logger),
		tags:        NewAttributeService(domain.KindTag, s, logger),
		ingredients: NewAttributeService(domain.KindIngredient, s, logger),
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "testpass123",
		Name:     "Test Name",
	})
	require.NoError(t, err)
	return u
}

func ptr[T any](v T) *T {
	return &v
}

// sampleFields returns a complete payload without tags or ingredients.
func sampleFields(title string) RecipeFields {
	return RecipeFields{
		Title:       ptr(title),
		TimeMinutes: ptr(22),
		Price:       ptr(decimal.RequireFromString("5.25")),
		Description: ptr("Sample description"),
		Link:        ptr("https://example.com/recipe.pdf"),
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
