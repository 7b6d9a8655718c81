package profile

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"

	"github.com/dmitrijs2005/selfkeeper/internal/client/connection"
	"github.com/dmitrijs2005/selfkeeper/internal/client/models"
	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	session connection.Session
	subs    map[int]func(connection.Session)
	next    int
}

func newSource(id *models.Identity) *fakeSource {
	s := &fakeSource{subs: map[int]func(connection.Session){}}
	if id != nil {
		s.session = connection.Session{Status: connection.StatusConnected, Identity: id}
	}
	return s
}

func (f *fakeSource) Session() connection.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeSource) Subscribe(fn func(connection.Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeSource) publish(s connection.Session) {
	f.mu.Lock()
	f.session = s
	subs := make([]func(connection.Session), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (f *fakeSource) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// fakeStore keeps one record in memory and merges top-level keys.
type fakeStore struct {
	content  map[string]any
	version  int64
	getErr   error
	mergeErr error
	gets     int
	patches  []map[string]any
}

func (f *fakeStore) GetRecord(_ context.Context, schema string) (models.Record, error) {
	f.gets++
	if f.getErr != nil {
		return models.Record{}, f.getErr
	}
	if schema != common.BasicProfileSchema {
		return models.Record{}, errors.New("unexpected schema " + schema)
	}
	return models.Record{StreamID: "s", Content: maps.Clone(f.content), Version: f.version}, nil
}

func (f *fakeStore) MergeRecord(_ context.Context, _ string, patch map[string]any) (models.Record, error) {
	f.patches = append(f.patches, patch)
	if f.mergeErr != nil {
		return models.Record{}, f.mergeErr
	}
	if f.content == nil {
		f.content = map[string]any{}
	}
	maps.Copy(f.content, patch)
	f.version++
	return models.Record{StreamID: "s", Content: maps.Clone(f.content), Version: f.version}, nil
}

func identityWith(store *fakeStore) *models.Identity {
	return &models.Identity{ID: "did:pkh:eip155:5:0xabc", Records: store}
}

func TestNewEditor_RequiresConnection(t *testing.T) {
	src := newSource(nil)
	_, err := NewEditor(src, nil)
	require.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, src.subscribers())

	src.session = connection.Session{Status: connection.StatusConnecting}
	_, err = NewEditor(src, nil)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestEditor_ContentNoRecord(t *testing.T) {
	store := &fakeStore{}
	e, err := NewEditor(newSource(identityWith(store)), nil)
	require.NoError(t, err)

	rec, err := e.Content(context.Background())
	require.NoError(t, err)
	assert.False(t, rec.Exists())
	assert.Nil(t, rec.Content)

	_, err = e.Content(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets, "cached until identity changes")
}

func TestEditor_ContentRecordPresent(t *testing.T) {
	store := &fakeStore{content: map[string]any{"name": "Ada", "emoji": "🦊"}, version: 4}
	e, err := NewEditor(newSource(identityWith(store)), nil)
	require.NoError(t, err)

	rec, err := e.Content(context.Background())
	require.NoError(t, err)
	name, ok := rec.Name()
	require.True(t, ok)
	assert.Equal(t, "Ada", name)

	rec.Content["name"] = "mutated"
	again, err := e.Content(context.Background())
	require.NoError(t, err)
	name, _ = again.Name()
	assert.Equal(t, "Ada", name, "readout is not aliased")
}

func TestEditor_ContentErrorNotCached(t *testing.T) {
	boom := errors.New("boom")
	store := &fakeStore{getErr: boom}
	e, err := NewEditor(newSource(identityWith(store)), nil)
	require.NoError(t, err)

	_, err = e.Content(context.Background())
	require.ErrorIs(t, err, boom)

	store.getErr = nil
	_, err = e.Content(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.gets)
}

func TestEditor_UpdateName(t *testing.T) {
	store := &fakeStore{content: map[string]any{"name": "Ada", "description": "math"}, version: 1}
	e, err := NewEditor(newSource(identityWith(store)), nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.Content(ctx)
	require.NoError(t, err)

	e.SetDraft("Grace")
	require.NoError(t, e.UpdateName(ctx, e.Draft()))

	assert.Equal(t, []map[string]any{{"name": "Grace"}}, store.patches)
	assert.Equal(t, "Grace", e.Draft(), "draft is kept after a successful update")

	rec, err := e.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Grace", "description": "math"}, rec.Content)
	assert.EqualValues(t, 2, rec.Version)
	assert.Equal(t, 1, store.gets, "readout replaced by the merge result, no refetch")
}

func TestEditor_UpdateNameEmpty(t *testing.T) {
	store := &fakeStore{}
	e, err := NewEditor(newSource(identityWith(store)), nil)
	require.NoError(t, err)

	require.NoError(t, e.UpdateName(context.Background(), ""))
	rec, err := e.Content(context.Background())
	require.NoError(t, err)
	require.True(t, rec.Exists())
	name, ok := rec.Name()
	assert.True(t, ok)
	assert.Empty(t, name)
}

func TestEditor_UpdateNameFailure(t *testing.T) {
	rejected := errors.New("record rejected by schema")
	store := &fakeStore{content: map[string]any{"name": "Ada"}, version: 1}
	e, err := NewEditor(newSource(identityWith(store)), nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.Content(ctx)
	require.NoError(t, err)

	store.mergeErr = rejected
	e.SetDraft("x")
	err = e.UpdateName(ctx, "x")
	require.ErrorIs(t, err, rejected)

	assert.Equal(t, "x", e.Draft())
	rec, err := e.Content(ctx)
	require.NoError(t, err)
	name, _ := rec.Name()
	assert.Equal(t, "Ada", name, "readout unchanged on failure")
}

func TestEditor_DetachesOnDisconnect(t *testing.T) {
	store := &fakeStore{content: map[string]any{"name": "Ada"}}
	src := newSource(identityWith(store))
	e, err := NewEditor(src, nil)
	require.NoError(t, err)
	ctx := context.Background()

	src.publish(connection.Session{Status: connection.StatusDisconnected})

	_, err = e.Content(ctx)
	require.ErrorIs(t, err, ErrNotConnected)
	require.ErrorIs(t, e.UpdateName(ctx, "x"), ErrNotConnected)
	_, err = e.Identity()
	require.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, src.subscribers())
	assert.Zero(t, store.gets)

	src.publish(connection.Session{Status: connection.StatusConnected, Identity: identityWith(store)})
	_, err = e.Content(ctx)
	require.ErrorIs(t, err, ErrNotConnected, "a detached editor stays detached")
}

func TestEditor_OnIdentityChange(t *testing.T) {
	first := &fakeStore{content: map[string]any{"name": "Ada"}}
	second := &fakeStore{content: map[string]any{"name": "Grace"}}
	e, err := NewEditor(newSource(identityWith(first)), nil)
	require.NoError(t, err)
	ctx := context.Background()

	rec, err := e.Content(ctx)
	require.NoError(t, err)
	name, _ := rec.Name()
	assert.Equal(t, "Ada", name)

	e.OnIdentityChange(&models.Identity{ID: "did:pkh:eip155:5:0xdef", Records: second})

	rec, err = e.Content(ctx)
	require.NoError(t, err)
	name, _ = rec.Name()
	assert.Equal(t, "Grace", name)

	id, err := e.Identity()
	require.NoError(t, err)
	assert.Equal(t, "did:pkh:eip155:5:0xdef", id.ID)
}

func TestEditor_Close(t *testing.T) {
	src := newSource(identityWith(&fakeStore{}))
	e, err := NewEditor(src, nil)
	require.NoError(t, err)
	require.Equal(t, 1, src.subscribers())

	e.Close()
	e.Close()
	assert.Zero(t, src.subscribers())
	_, err = e.Content(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)
}
