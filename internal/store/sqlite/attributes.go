package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/store"
)

// attributeTables names the registry table and recipe join table of one kind.
type attributeTables struct {
	table      string
	joinTable  string
	joinColumn string
}

var kindTables = map[domain.AttributeKind]attributeTables{
	domain.KindTag:        {table: "tags", joinTable: "recipe_tags", joinColumn: "tag_id"},
	domain.KindIngredient: {table: "ingredients", joinTable: "recipe_ingredients", joinColumn: "ingredient_id"},
}

func tablesFor(kind domain.AttributeKind) (attributeTables, error) {
	t, ok := kindTables[kind]
	if !ok {
		return attributeTables{}, fmt.Errorf("unknown attribute kind %q", kind)
	}
	return t, nil
}

// attributeColumns is the ordered list of columns selected in attribute queries.
// Must match the scan order in scanAttribute.
const attributeColumns = `id, user_id, name, created_at, updated_at`

// scanAttribute scans a row into a domain.Attribute. Any extra destinations
// are filled from the columns preceding attributeColumns.
func scanAttribute(scanner interface{ Scan(dest ...any) error }, kind domain.AttributeKind, extra ...any) (*domain.Attribute, error) {
	a := domain.Attribute{Kind: kind}

	var (
		createdAt string
		updatedAt string
	)

	dest := append(extra, &a.ID, &a.UserID, &a.Name, &createdAt, &updatedAt)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// insertAttribute inserts a new tag or ingredient and sets attr.ID.
// Returns store.ErrAlreadyExists if the owner already has that name.
func insertAttribute(ctx context.Context, q querier, attr *domain.Attribute) error {
	t, err := tablesFor(attr.Kind)
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO `+t.table+` (user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		attr.UserID,
		attr.Name,
		formatTime(attr.CreatedAt),
		formatTime(attr.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("%s with this name already exists", attr.Kind))
		}
		return fmt.Errorf("insert %s: %w", attr.Kind, err)
	}

	attr.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s id: %w", attr.Kind, err)
	}
	return nil
}

// GetAttribute retrieves one of the user's tags or ingredients.
// Returns store.ErrNotFound if it does not exist or belongs to another user.
func (s *Store) GetAttribute(ctx context.Context, kind domain.AttributeKind, userID, id int64) (*domain.Attribute, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	a, err := scanAttribute(s.db.QueryRowContext(ctx,
		`SELECT `+attributeColumns+` FROM `+t.table+` WHERE id = ? AND user_id = ?`, id, userID), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAttributes returns the user's tags or ingredients ordered by name descending.
// With assignedOnly, only rows linked to at least one recipe are returned.
func (s *Store) ListAttributes(ctx context.Context, kind domain.AttributeKind, userID int64, assignedOnly bool) ([]*domain.Attribute, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + attributeColumns + ` FROM ` + t.table + ` a WHERE a.user_id = ?`
	if assignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM ` + t.joinTable + ` j WHERE j.` + t.joinColumn + ` = a.id)`
	}
	query += ` ORDER BY a.name DESC, a.id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Plural(), err)
	}
	defer rows.Close()

	attrs := []*domain.Attribute{}
	for rows.Next() {
		a, err := scanAttribute(rows, kind)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attrs, nil
}

// RenameAttribute changes the name of one of the user's tags or ingredients.
// Returns store.ErrNotFound for missing or foreign rows and
// store.ErrAlreadyExists if the user already has the new name.
func (s *Store) RenameAttribute(ctx context.Context, kind domain.AttributeKind, userID, id int64, name string) (*domain.Attribute, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE `+t.table+` SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		name, formatTime(time.Now()), id, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists.WithMessage(fmt.Sprintf("%s with this name already exists", kind))
		}
		return nil, fmt.Errorf("rename %s: %w", kind, err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.GetAttribute(ctx, kind, userID, id)
}

// DeleteAttribute removes one of the user's tags or ingredients along with
// its recipe links.
func (s *Store) DeleteAttribute(ctx context.Context, kind domain.AttributeKind, userID, id int64) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM `+t.table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return requireAffected(res)
}

// resolveAttributes maps names to the user's registry rows, creating missing ones.
// Duplicate names resolve to a single row. Returns the rows in input order
// and the number created.
func resolveAttributes(ctx context.Context, q querier, kind domain.AttributeKind, userID int64, names []string) ([]*domain.Attribute, int, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, 0, err
	}

	attrs := make([]*domain.Attribute, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	created := 0

	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		a, err := scanAttribute(q.QueryRowContext(ctx,
			`SELECT `+attributeColumns+` FROM `+t.table+` WHERE user_id = ? AND name = ?`, userID, name), kind)
		switch {
		case err == nil:
			attrs = append(attrs, a)
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return nil, 0, fmt.Errorf("find %s %q: %w", kind, name, err)
		}

		a = &domain.Attribute{UserID: userID, Kind: kind, Name: name}
		a.InitTimestamps()
		if err := insertAttribute(ctx, q, a); err != nil {
			return nil, 0, err
		}
		attrs = append(attrs, a)
		created++
	}

	return attrs, created, nil
}

// replaceAssociations links recipeID to exactly attrs for the kind.
func replaceAssociations(ctx context.Context, q querier, kind domain.AttributeKind, recipeID int64, attrs []*domain.Attribute) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM `+t.joinTable+` WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("clear %s: %w", t.joinTable, err)
	}

	for _, a := range attrs {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+t.joinTable+` (recipe_id, `+t.joinColumn+`) VALUES (?, ?)`,
			recipeID, a.ID); err != nil {
			return fmt.Errorf("insert %s: %w", t.joinTable, err)
		}
	}
	return nil
}

// loadAttributes returns the kind's attributes for each recipe, ordered by name.
// Only rows owned by userID are considered.
func loadAttributes(ctx context.Context, q querier, kind domain.AttributeKind, userID int64, recipeIDs []int64) (map[int64][]*domain.Attribute, error) {
	out := make(map[int64][]*domain.Attribute, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT j.recipe_id, a.id, a.user_id, a.name, a.created_at, a.updated_at
		FROM ` + t.joinTable + ` j
		JOIN ` + t.table + ` a ON a.id = j.` + t.joinColumn + `
		WHERE a.user_id = ? AND j.recipe_id IN (` + placeholders(len(recipeIDs)) + `)
		ORDER BY a.name ASC, a.id ASC`

	args := append([]any{userID}, int64Args(recipeIDs)...)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind.Plural(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int64
		a, err := scanAttribute(rows, kind, &recipeID)
		if err != nil {
			return nil, err
		}
		out[recipeID] = append(out[recipeID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
