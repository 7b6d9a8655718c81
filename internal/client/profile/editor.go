// Package profile edits the basicProfile record of the connected identity.
package profile

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/dmitrijs2005/selfkeeper/internal/client/connection"
	"github.com/dmitrijs2005/selfkeeper/internal/client/models"
	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/dmitrijs2005/selfkeeper/internal/logging"
)

var ErrNotConnected = errors.New("not connected")

// SessionSource is the part of connection.Controller the editor depends on.
type SessionSource interface {
	Session() connection.Session
	Subscribe(fn func(connection.Session)) func()
}

// Editor reads and updates the profile of one connected identity. It
// detaches for good once the connection leaves connected; every call that
// can fail then returns ErrNotConnected.
type Editor struct {
	schema      string
	logger      logging.Logger
	unsubscribe func()

	mu       sync.Mutex
	identity *models.Identity
	detached bool
	cached   *models.Record
	draft    string
}

// NewEditor opens an editor for the currently connected identity of src.
func NewEditor(src SessionSource, logger logging.Logger) (*Editor, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	e := &Editor{schema: common.BasicProfileSchema, logger: logger.With("module", "profile")}

	e.mu.Lock()
	e.unsubscribe = src.Subscribe(e.onSession)
	e.mu.Unlock()

	s := src.Session()
	if !s.Connected() {
		e.detach()
		return nil, ErrNotConnected
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return nil, ErrNotConnected
	}
	if e.identity == nil {
		e.identity = s.Identity
	}
	return e, nil
}

func (e *Editor) onSession(s connection.Session) {
	if !s.Connected() {
		e.detach()
		return
	}

	e.mu.Lock()
	changed := e.identity != nil && e.identity != s.Identity
	e.mu.Unlock()
	if changed {
		e.OnIdentityChange(s.Identity)
	}
}

func (e *Editor) detach() {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	e.detached = true
	e.identity = nil
	e.cached = nil
	unsubscribe := e.unsubscribe
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Close detaches the editor from the connection.
func (e *Editor) Close() {
	e.detach()
}

// Identity returns the identity being edited.
func (e *Editor) Identity() (*models.Identity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return nil, ErrNotConnected
	}
	return e.identity, nil
}

// OnIdentityChange rebinds the editor to id and drops the cached record, so
// the next Content call fetches again.
func (e *Editor) OnIdentityChange(id *models.Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return
	}
	e.identity = id
	e.cached = nil
}

// Content returns the profile record, fetching it on first use. A record
// without Content means the identity has no profile yet.
func (e *Editor) Content(ctx context.Context) (models.Record, error) {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return models.Record{}, ErrNotConnected
	}
	if e.cached != nil {
		rec := cloneRecord(*e.cached)
		e.mu.Unlock()
		return rec, nil
	}
	id := e.identity
	e.mu.Unlock()

	rec, err := id.Records.GetRecord(ctx, e.schema)
	if err != nil {
		return models.Record{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return models.Record{}, ErrNotConnected
	}
	if e.identity == id {
		cached := cloneRecord(rec)
		e.cached = &cached
	}
	return rec, nil
}

// UpdateName merges {name: v} into the profile. An empty v is stored as
// is. On success the readout becomes the merged record returned by the
// network; on failure the readout and the draft are left alone.
func (e *Editor) UpdateName(ctx context.Context, v string) error {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return ErrNotConnected
	}
	id := e.identity
	e.mu.Unlock()

	rec, err := id.Records.MergeRecord(ctx, e.schema, map[string]any{common.NameField: v})
	if err != nil {
		e.logger.Warn(ctx, "profile update failed", "did", id.ID, "error", err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return ErrNotConnected
	}
	if e.identity == id {
		cached := cloneRecord(rec)
		e.cached = &cached
	}
	e.logger.Debug(ctx, "profile updated", "did", id.ID, "version", rec.Version)
	return nil
}

// SetDraft stores unsaved name input. The draft is local only.
func (e *Editor) SetDraft(v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = v
}

func (e *Editor) Draft() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

func cloneRecord(r models.Record) models.Record {
	if r.Content != nil {
		r.Content = maps.Clone(r.Content)
	}
	return r
}
