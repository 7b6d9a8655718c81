package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

// Get returns the stored state of streamID, or common.ErrorNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, streamID string) (*models.Record, error) {
	rec := &models.Record{StreamID: streamID}
	var raw string
	err := r.db.QueryRowContext(ctx, `
		SELECT controller, schema_name, content, version, updated_at
		FROM records WHERE stream_id = ?`, streamID).
		Scan(&rec.Controller, &rec.Schema, &raw, &rec.Version, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if rec.Content, err = decodeContent([]byte(raw)); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts the first version of a stream. A concurrent first write
// loses with common.ErrVersionConflict.
func (r *SQLiteRepository) Create(ctx context.Context, rec *models.Record) error {
	content, err := encodeContent(rec.Content)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO records (stream_id, controller, schema_name, content, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		rec.StreamID, rec.Controller, rec.Schema, content, rec.Version, rec.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return expectOneRow(res)
}

// Update writes rec only if the stored version still equals expectedVersion.
func (r *SQLiteRepository) Update(ctx context.Context, rec *models.Record, expectedVersion int64) error {
	content, err := encodeContent(rec.Content)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE records SET content = ?, version = ?, updated_at = ?
		WHERE stream_id = ? AND version = ?`,
		content, rec.Version, rec.UpdatedAt.UTC(), rec.StreamID, expectedVersion)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return expectOneRow(res)
}
