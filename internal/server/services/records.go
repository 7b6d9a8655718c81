package services

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/dmitrijs2005/selfkeeper/internal/logging"
	"github.com/dmitrijs2005/selfkeeper/internal/server/archive"
	"github.com/dmitrijs2005/selfkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/selfkeeper/internal/server/models"
	"github.com/dmitrijs2005/selfkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/selfkeeper/internal/server/schema"
	"github.com/google/uuid"
)

const maxMergeAttempts = 5

// streamNamespace seeds deterministic stream ids.
var streamNamespace = uuid.MustParse("6f1c3a52-8d0e-4c1b-9a55-2f4b7e9d0c31")

// StreamID is the id of the stream a controller keeps under a schema. It is
// stable, so every session of the same DID lands on the same record.
func StreamID(controller, schemaName string) string {
	return uuid.NewSHA1(streamNamespace, []byte(controller+"\x00"+schemaName)).String()
}

type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	schemas     *schema.Registry
	archive     archive.Archive
	observer    Observer
	logger      logging.Logger
	now         func() time.Time
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager, schemas *schema.Registry,
	arc archive.Archive, observer Observer, logger logging.Logger) *RecordService {
	if arc == nil {
		arc = archive.Nop{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &RecordService{
		db:          db,
		repomanager: m,
		schemas:     schemas,
		archive:     arc,
		observer:    observer,
		logger:      logger.With("module", "records"),
		now:         time.Now,
	}
}

// Get returns the controller's record. When nothing was ever written the
// record has Version 0 and nil Content.
func (s *RecordService) Get(ctx context.Context, controller, schemaName string) (*models.Record, error) {
	if !s.schemas.Known(schemaName) {
		return nil, common.ErrUnknownSchema
	}

	streamID := StreamID(controller, schemaName)
	rec, err := s.repomanager.Records(s.db).Get(ctx, streamID)
	if errors.Is(err, common.ErrorNotFound) {
		return &models.Record{StreamID: streamID, Controller: controller, Schema: schemaName}, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Merge shallow-merges patch into the controller's record: top-level keys
// in patch replace stored ones, every other key is kept. The result must
// satisfy the schema. Concurrent writers are resolved by re-reading and
// retrying on a version conflict.
func (s *RecordService) Merge(ctx context.Context, controller, schemaName string, patch map[string]any) (*models.Record, error) {
	if !s.schemas.Known(schemaName) {
		return nil, common.ErrUnknownSchema
	}

	repo := s.repomanager.Records(s.db)
	streamID := StreamID(controller, schemaName)

	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err := repo.Get(ctx, streamID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.observer.ObserveMerge(schemaName, metrics.ResultError)
			return nil, err
		}

		next := &models.Record{
			StreamID:   streamID,
			Controller: controller,
			Schema:     schemaName,
			Content:    shallowMerge(current, patch),
			UpdatedAt:  s.now().UTC(),
		}

		if err := s.schemas.Validate(schemaName, next.Content); err != nil {
			s.observer.ObserveMerge(schemaName, metrics.ResultRejected)
			return nil, err
		}

		if current == nil {
			next.Version = 1
			err = repo.Create(ctx, next)
		} else {
			next.Version = current.Version + 1
			err = repo.Update(ctx, next, current.Version)
		}
		if errors.Is(err, common.ErrVersionConflict) {
			s.logger.Debug(ctx, "merge conflict, retrying", "stream_id", streamID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			s.observer.ObserveMerge(schemaName, metrics.ResultError)
			return nil, err
		}

		s.archiveCommit(ctx, next, patch)
		s.observer.ObserveMerge(schemaName, metrics.ResultOK)
		return next, nil
	}

	s.observer.ObserveMerge(schemaName, metrics.ResultError)
	return nil, common.ErrVersionConflict
}

func (s *RecordService) archiveCommit(ctx context.Context, rec *models.Record, patch map[string]any) {
	err := s.archive.Put(ctx, models.Commit{
		StreamID:   rec.StreamID,
		Controller: rec.Controller,
		Schema:     rec.Schema,
		Version:    rec.Version,
		Patch:      patch,
		Content:    rec.Content,
		CreatedAt:  rec.UpdatedAt,
	})
	if err != nil {
		s.logger.Warn(ctx, "archiving commit failed", "stream_id", rec.StreamID, "version", rec.Version, "error", err)
	}
}

func shallowMerge(current *models.Record, patch map[string]any) map[string]any {
	out := map[string]any{}
	if current != nil {
		maps.Copy(out, current.Content)
	}
	maps.Copy(out, patch)
	return out
}
