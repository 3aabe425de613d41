// Package store defines the persistence interface for the Recipebox server.
//
// Every method that touches recipes, tags or ingredients takes the owning
// user's id and filters by it first; rows owned by someone else behave
// exactly like rows that do not exist.
package store

import (
	"context"
	"time"

	"github.com/recipebox/recipebox-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, upd domain.ProfileUpdate) (*domain.User, error)
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
	SetUserActive(ctx context.Context, userID int64, active bool) error
	CountUsers(ctx context.Context) (int, error)

	// Auth tokens
	IssueToken(ctx context.Context, userID int64, newKey string, rotate bool) (*domain.AuthToken, error)
	GetToken(ctx context.Context, key string) (*domain.AuthToken, error)

	// Tags and ingredients
	GetAttribute(ctx context.Context, kind domain.AttributeKind, userID, id int64) (*domain.Attribute, error)
	ListAttributes(ctx context.Context, kind domain.AttributeKind, userID int64, assignedOnly bool) ([]*domain.Attribute, error)
	RenameAttribute(ctx context.Context, kind domain.AttributeKind, userID, id int64, name string) (*domain.Attribute, error)
	DeleteAttribute(ctx context.Context, kind domain.AttributeKind, userID, id int64) error

	// Recipes
	CreateRecipe(ctx context.Context, recipe *domain.Recipe, assoc domain.AssociationUpdate) (*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, userID, id int64, apply func(*domain.Recipe) error, assoc domain.AssociationUpdate) (*domain.Recipe, error)
	GetRecipe(ctx context.Context, userID, id int64) (*domain.Recipe, error)
	ListRecipes(ctx context.Context, userID int64, filter domain.RecipeFilter) ([]*domain.Recipe, error)
	DeleteRecipe(ctx context.Context, userID, id int64) error
	SetRecipeImage(ctx context.Context, userID, id int64, image string) (previous string, err error)
}
