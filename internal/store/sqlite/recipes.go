package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `id, user_id, title, time_minutes, price, description, link, image,
	created_at, updated_at`

var attributeKinds = []domain.AttributeKind{domain.KindTag, domain.KindIngredient}

// scanRecipe scans a recipe row. Tags and ingredients are left empty.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		price     string
		image     sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.TimeMinutes,
		&price,
		&r.Description,
		&r.Link,
		&image,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if r.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	if image.Valid {
		r.Image = image.String
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	r.Tags = []*domain.Attribute{}
	r.Ingredients = []*domain.Attribute{}
	return &r, nil
}

// CreateRecipe inserts a recipe and reconciles its tags and ingredients in one
// transaction. Names in assoc are reused from, or added to, the owner's
// registries. Returns the stored recipe with its sets loaded.
func (s *Store) CreateRecipe(ctx context.Context, recipe *domain.Recipe, assoc domain.AssociationUpdate) (*domain.Recipe, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO recipes (
			user_id, title, time_minutes, price, description, link, image,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.UserID,
		recipe.Title,
		recipe.TimeMinutes,
		recipe.Price.StringFixed(2),
		recipe.Description,
		recipe.Link,
		nullString(recipe.Image),
		formatTime(recipe.CreatedAt),
		formatTime(recipe.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}

	recipeID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("recipe id: %w", err)
	}

	if err := s.reconcile(ctx, tx, recipe.UserID, recipeID, assoc); err != nil {
		return nil, err
	}

	saved, err := getRecipe(ctx, tx, recipe.UserID, recipeID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

// UpdateRecipe loads the user's recipe, lets apply modify its scalar fields,
// writes it back and reconciles tags and ingredients, all in one transaction.
// An error from apply aborts the update with nothing written.
// Returns store.ErrNotFound for missing or foreign recipes.
func (s *Store) UpdateRecipe(ctx context.Context, userID, id int64, apply func(*domain.Recipe) error, assoc domain.AssociationUpdate) (*domain.Recipe, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	recipe, err := getRecipeRow(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}

	if apply != nil {
		if err := apply(recipe); err != nil {
			return nil, err
		}
	}
	recipe.Touch()

	// Owner and id come from the loaded row, never from apply.
	if _, err := tx.ExecContext(ctx, `
		UPDATE recipes SET
			title = ?, time_minutes = ?, price = ?, description = ?, link = ?,
			image = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		recipe.Title,
		recipe.TimeMinutes,
		recipe.Price.StringFixed(2),
		recipe.Description,
		recipe.Link,
		nullString(recipe.Image),
		formatTime(recipe.UpdatedAt),
		id,
		userID,
	); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	if err := s.reconcile(ctx, tx, userID, id, assoc); err != nil {
		return nil, err
	}

	saved, err := getRecipe(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

// reconcile replaces each kind's associations that assoc marks for replacement.
func (s *Store) reconcile(ctx context.Context, q querier, userID, recipeID int64, assoc domain.AssociationUpdate) error {
	for _, kind := range attributeKinds {
		replace, names := assoc.Replaces(kind)
		if !replace {
			continue
		}

		attrs, created, err := resolveAttributes(ctx, q, kind, userID, names)
		if err != nil {
			return err
		}
		if err := replaceAssociations(ctx, q, kind, recipeID, attrs); err != nil {
			return err
		}

		if created > 0 {
			s.logger.Debug("created attributes during reconcile",
				"kind", string(kind),
				"user_id", userID,
				"recipe_id", recipeID,
				"created", created,
			)
		}
	}
	return nil
}

// GetRecipe retrieves one of the user's recipes with its tags and ingredients.
// Returns store.ErrNotFound for missing or foreign recipes.
func (s *Store) GetRecipe(ctx context.Context, userID, id int64) (*domain.Recipe, error) {
	return getRecipe(ctx, s.db, userID, id)
}

func getRecipeRow(ctx context.Context, q querier, userID, id int64) (*domain.Recipe, error) {
	r, err := scanRecipe(q.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func getRecipe(ctx context.Context, q querier, userID, id int64) (*domain.Recipe, error) {
	r, err := getRecipeRow(ctx, q, userID, id)
	if err != nil {
		return nil, err
	}
	if err := attachAttributes(ctx, q, userID, []*domain.Recipe{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes returns the user's recipes, newest first, each exactly once.
// A recipe matches when it has any of filter.TagIDs (if given) and any of
// filter.IngredientIDs (if given).
func (s *Store) ListRecipes(ctx context.Context, userID int64, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = ?`
	args := []any{userID}

	if len(filter.TagIDs) > 0 {
		query += ` AND id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id IN (` + placeholders(len(filter.TagIDs)) + `))`
		args = append(args, int64Args(filter.TagIDs)...)
	}
	if len(filter.IngredientIDs) > 0 {
		query += ` AND id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id IN (` + placeholders(len(filter.IngredientIDs)) + `))`
		args = append(args, int64Args(filter.IngredientIDs)...)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []*domain.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := attachAttributes(ctx, s.db, userID, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func attachAttributes(ctx context.Context, q querier, userID int64, recipes []*domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]int64, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}

	for _, kind := range attributeKinds {
		byRecipe, err := loadAttributes(ctx, q, kind, userID, ids)
		if err != nil {
			return err
		}
		for _, r := range recipes {
			if attrs, ok := byRecipe[r.ID]; ok {
				r.SetAttributes(kind, attrs)
			}
		}
	}
	return nil
}

// DeleteRecipe removes one of the user's recipes and its links.
// Tags and ingredients stay in the registries.
func (s *Store) DeleteRecipe(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return requireAffected(res)
}

// SetRecipeImage stores a new image path and returns the one it replaced.
func (s *Store) SetRecipeImage(ctx context.Context, userID, id int64, image string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	recipe, err := getRecipeRow(ctx, tx, userID, id)
	if err != nil {
		return "", err
	}

	recipe.Touch()
	if _, err := tx.ExecContext(ctx,
		`UPDATE recipes SET image = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		nullString(image), formatTime(recipe.UpdatedAt), id, userID); err != nil {
		return "", fmt.Errorf("set recipe image: %w", err)
	}

	return recipe.Image, tx.Commit()
}
