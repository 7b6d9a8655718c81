package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/dmitrijs2005/selfkeeper/internal/dbx"
	"github.com/dmitrijs2005/selfkeeper/internal/server/models"
)

// SQLiteRepository implements Repository for the single-node sqlite store.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a refresh token issued to subject (a DID) that expires at now+validity.
func (r *SQLiteRepository) Create(ctx context.Context, subject string, token string, validity time.Duration) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (subject, token, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		subject, token, now.Add(validity), now)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// Find returns the refresh token row for token, or common.ErrorNotFound.
func (r *SQLiteRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt := &models.RefreshToken{Token: token}
	err := r.db.QueryRowContext(ctx,
		`SELECT subject, expires_at FROM refresh_tokens WHERE token = ?`, token).
		Scan(&rt.Subject, &rt.Expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

// Delete removes token. Missing tokens are not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
