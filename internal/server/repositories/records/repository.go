// Package records stores the latest state of each stream with optimistic
// versioning. Writers read a record, compute the next content and write it
// back conditioned on the version they read; a concurrent writer surfaces as
// common.ErrVersionConflict and the caller retries.
package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/selfkeeper/internal/server/models"
)

type Repository interface {
	// Get returns the record of a stream or common.ErrorNotFound.
	Get(ctx context.Context, streamID string) (*models.Record, error)

	// Create inserts the first version of a stream. It fails with
	// common.ErrVersionConflict if the stream already exists.
	Create(ctx context.Context, rec *models.Record) error

	// Update stores rec if the stored version still equals expectedVersion,
	// otherwise it fails with common.ErrVersionConflict.
	Update(ctx context.Context, rec *models.Record, expectedVersion int64) error
}

func encodeContent(content map[string]any) (string, error) {
	if content == nil {
		content = map[string]any{}
	}
	b, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("encode content: %w", err)
	}
	return string(b), nil
}

func decodeContent(raw []byte) (map[string]any, error) {
	content := map[string]any{}
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return content, nil
}
