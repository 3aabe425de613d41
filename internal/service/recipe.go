package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/normalize"
	"github.com/recipebox/recipebox-server/internal/store"
)

const msgFieldRequired = "this field is required"

// RecipeService manages recipes and reconciles their tags and ingredients.
type RecipeService struct {
	store  store.Store
	images *images.Processor
	logger *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(store store.Store, images *images.Processor, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:  store,
		images: images,
		logger: logger,
	}
}

// RecipeFields carries a recipe payload. Nil pointers are absent fields.
// A nil Tags or Ingredients slice leaves that set untouched; an empty,
// non-nil slice clears it.
type RecipeFields struct {
	Title       *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Description *string
	Link        *string
	Tags        []string
	Ingredients []string
}

// ImageResult describes a recipe's newly uploaded image.
type ImageResult struct {
	RecipeID int64
	Image    string
	BlurHash string
}

// recipeScalars is the validated scalar state of a recipe.
type recipeScalars struct {
	Title       string `json:"title" validate:"required,max=255"`
	TimeMinutes int    `json:"time_minutes" validate:"gte=0"`
	Price       string `json:"price" validate:"price"`
	Link        string `json:"link" validate:"omitempty,httpurl,max=255"`
}

type recipeNames struct {
	Tags        []string `json:"tags" validate:"dive,required,max=255"`
	Ingredients []string `json:"ingredients" validate:"dive,required,max=255"`
}

func validateRecipe(r *domain.Recipe) error {
	return validate.Validate(recipeScalars{
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.String(),
		Link:        r.Link,
	})
}

// associations normalizes and validates the tag and ingredient names in f.
func associations(f RecipeFields) (domain.AssociationUpdate, error) {
	names := recipeNames{
		Tags:        normalize.Names(f.Tags),
		Ingredients: normalize.Names(f.Ingredients),
	}
	if err := validate.Validate(names); err != nil {
		return domain.AssociationUpdate{}, err
	}
	return domain.AssociationUpdate{
		ReplaceTags:        f.Tags != nil,
		Tags:               names.Tags,
		ReplaceIngredients: f.Ingredients != nil,
		Ingredients:        names.Ingredients,
	}, nil
}

// requireFull checks the fields a full write cannot do without.
func requireFull(f RecipeFields) error {
	missing := make(map[string]string)
	if f.Title == nil {
		missing["title"] = msgFieldRequired
	}
	if f.TimeMinutes == nil {
		missing["time_minutes"] = msgFieldRequired
	}
	if f.Price == nil {
		missing["price"] = msgFieldRequired
	}
	if len(missing) > 0 {
		return domainerrors.ValidationWithDetails("validation failed", missing)
	}
	return nil
}

// applyFields copies the present fields of f onto r. With reset, absent
// optional fields go back to their defaults.
func applyFields(r *domain.Recipe, f RecipeFields, reset bool) {
	if f.Title != nil {
		r.Title = strings.TrimSpace(*f.Title)
	}
	if f.TimeMinutes != nil {
		r.TimeMinutes = *f.TimeMinutes
	}
	if f.Price != nil {
		r.Price = *f.Price
	}
	switch {
	case f.Description != nil:
		r.Description = strings.TrimSpace(*f.Description)
	case reset:
		r.Description = ""
	}
	switch {
	case f.Link != nil:
		r.Link = strings.TrimSpace(*f.Link)
	case reset:
		r.Link = ""
	}
}

// Create stores a new recipe owned by userID, creating any tags and
// ingredients the user does not have yet.
func (s *RecipeService) Create(ctx context.Context, userID int64, f RecipeFields) (*domain.Recipe, error) {
	if err := requireFull(f); err != nil {
		return nil, err
	}

	recipe := &domain.Recipe{UserID: userID}
	applyFields(recipe, f, true)
	if err := validateRecipe(recipe); err != nil {
		return nil, err
	}

	if f.Tags == nil {
		f.Tags = []string{}
	}
	if f.Ingredients == nil {
		f.Ingredients = []string{}
	}
	assoc, err := associations(f)
	if err != nil {
		return nil, err
	}

	recipe.InitTimestamps()
	created, err := s.store.CreateRecipe(ctx, recipe, assoc)
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	s.logger.Info("recipe created",
		"user_id", userID,
		"recipe_id", created.ID,
		"tags", len(created.Tags),
		"ingredients", len(created.Ingredients),
	)

	return created, nil
}

// Replace overwrites a recipe (PUT). Title, time and price are required;
// absent description and link are cleared.
func (s *RecipeService) Replace(ctx context.Context, userID, id int64, f RecipeFields) (*domain.Recipe, error) {
	if err := requireFull(f); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, id, f, true)
}

// Patch updates only the fields present in f.
func (s *RecipeService) Patch(ctx context.Context, userID, id int64, f RecipeFields) (*domain.Recipe, error) {
	return s.update(ctx, userID, id, f, false)
}

func (s *RecipeService) update(ctx context.Context, userID, id int64, f RecipeFields, reset bool) (*domain.Recipe, error) {
	assoc, err := associations(f)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateRecipe(ctx, userID, id, func(r *domain.Recipe) error {
		applyFields(r, f, reset)
		return validateRecipe(r)
	}, assoc)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.logger.Info("recipe updated",
		"user_id", userID,
		"recipe_id", id,
		"replace", reset,
		"tags_replaced", assoc.ReplaceTags,
		"ingredients_replaced", assoc.ReplaceIngredients,
	)

	return updated, nil
}

// Get returns one of the user's recipes.
func (s *RecipeService) Get(ctx context.Context, userID, id int64) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, id)
	if err != nil {
		return nil, s.mapError(err)
	}
	return recipe, nil
}

// List returns the user's recipes, newest first, narrowed by filter.
func (s *RecipeService) List(ctx context.Context, userID int64, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Delete removes a recipe and its uploaded image. Tags and ingredients stay.
func (s *RecipeService) Delete(ctx context.Context, userID, id int64) error {
	recipe, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteRecipe(ctx, userID, id); err != nil {
		return s.mapError(err)
	}

	if recipe.Image != "" {
		s.removeImage(recipe.Image)
	}

	s.logger.Info("recipe deleted",
		"user_id", userID,
		"recipe_id", id,
	)
	return nil
}

// UploadImage stores data as the recipe's image, replacing any earlier one.
func (s *RecipeService) UploadImage(ctx context.Context, userID, id int64, data []byte) (*ImageResult, error) {
	// Foreign recipes must not leave files behind.
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	upload, err := s.images.Process(ctx, data)
	if err != nil {
		switch {
		case errors.Is(err, images.ErrInvalidImage), errors.Is(err, images.ErrImageTooLarge):
			return nil, domainerrors.FieldError("image", err.Error())
		}
		return nil, fmt.Errorf("process image: %w", err)
	}

	previous, err := s.store.SetRecipeImage(ctx, userID, id, upload.RelPath)
	if err != nil {
		s.removeImage(upload.RelPath)
		return nil, s.mapError(err)
	}
	if previous != "" && previous != upload.RelPath {
		s.removeImage(previous)
	}

	s.logger.Info("recipe image uploaded",
		"user_id", userID,
		"recipe_id", id,
		"image", upload.RelPath,
		"size", upload.Size,
	)

	return &ImageResult{
		RecipeID: id,
		Image:    upload.RelPath,
		BlurHash: upload.BlurHash,
	}, nil
}

func (s *RecipeService) removeImage(relPath string) {
	if err := s.images.Remove(relPath); err != nil {
		s.logger.Warn("failed to remove image file",
			"image", relPath,
			"error", err,
		)
	}
}

func (s *RecipeService) mapError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound("Recipe not found")
	}
	var derr *domainerrors.Error
	if errors.As(err, &derr) {
		return derr
	}
	return fmt.Errorf("recipe: %w", err)
}
