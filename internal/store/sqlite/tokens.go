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

const tokenColumns = `token_key, user_id, created_at`

func scanToken(scanner interface{ Scan(dest ...any) error }) (*domain.AuthToken, error) {
	var (
		t         domain.AuthToken
		createdAt string
	)
	if err := scanner.Scan(&t.Key, &t.UserID, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// IssueToken returns the token row for userID in one transaction.
//
// Without rotate an existing row is returned unchanged and newKey is unused.
// With rotate, or when the user has no row yet, any existing row is removed
// and a row with newKey is inserted.
func (s *Store) IssueToken(ctx context.Context, userID int64, newKey string, rotate bool) (*domain.AuthToken, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if !rotate {
		existing, err := scanToken(tx.QueryRowContext(ctx,
			`SELECT `+tokenColumns+` FROM auth_tokens WHERE user_id = ?`, userID))
		if err == nil {
			return existing, tx.Commit()
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get token: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = ?`, userID); err != nil {
		return nil, fmt.Errorf("delete tokens: %w", err)
	}

	tok := &domain.AuthToken{Key: newKey, UserID: userID, CreatedAt: time.Now().UTC()}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO auth_tokens (token_key, user_id, created_at)
		VALUES (?, ?, ?)`,
		tok.Key,
		tok.UserID,
		formatTime(tok.CreatedAt),
	); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists.WithCause(err)
		}
		return nil, fmt.Errorf("insert token: %w", err)
	}

	return tok, tx.Commit()
}

// GetToken retrieves a token row by key.
// Returns store.ErrNotFound if no row has the key.
func (s *Store) GetToken(ctx context.Context, key string) (*domain.AuthToken, error) {
	tok, err := scanToken(s.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM auth_tokens WHERE token_key = ?`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tok, nil
}
