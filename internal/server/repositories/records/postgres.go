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

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the stored state of streamID, or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, streamID string) (*models.Record, error) {
	query := `
		SELECT controller, schema_name, content, version, updated_at
		FROM records
		WHERE stream_id = $1
	`
	rec := &models.Record{StreamID: streamID}
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, streamID).
		Scan(&rec.Controller, &rec.Schema, &raw, &rec.Version, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if rec.Content, err = decodeContent(raw); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts the first version of a stream. A concurrent first write
// loses with common.ErrVersionConflict.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.Record) error {
	content, err := encodeContent(rec.Content)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO records (stream_id, controller, schema_name, content, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.StreamID, rec.Controller, rec.Schema, content, rec.Version, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return expectOneRow(res)
}

// Update writes rec only if the stored version still equals expectedVersion.
func (r *PostgresRepository) Update(ctx context.Context, rec *models.Record, expectedVersion int64) error {
	content, err := encodeContent(rec.Content)
	if err != nil {
		return err
	}

	query := `
		UPDATE records
		SET content = $1, version = $2, updated_at = $3
		WHERE stream_id = $4 AND version = $5
	`
	res, err := r.db.ExecContext(ctx, query,
		content, rec.Version, rec.UpdatedAt, rec.StreamID, expectedVersion)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return expectOneRow(res)
}

// expectOneRow turns a write that touched nothing into a version conflict.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrVersionConflict
	}
	return nil
}
