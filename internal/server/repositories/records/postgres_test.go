package records

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/dmitrijs2005/selfkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	streamID   = "9b2d6c2e-5d3e-5c5a-9a43-3f0c8f3d1e11"
	controller = "did:pkh:eip155:5:0xabc"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresGet_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"controller", "schema_name", "content", "version", "updated_at"}).
		AddRow(controller, "basicProfile", []byte(`{"name":"Alice"}`), int64(2), now)
	mock.ExpectQuery(`(?s)SELECT\s+controller,.*FROM\s+records\s+WHERE\s+stream_id\s*=\s*\$1`).
		WithArgs(streamID).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), streamID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Alice"}, got.Content)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, controller, got.Controller)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT`).WithArgs(streamID).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), streamID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresGet_CorruptContent(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"controller", "schema_name", "content", "version", "updated_at"}).
		AddRow(controller, "basicProfile", []byte(`not json`), int64(1), time.Now())
	mock.ExpectQuery(`SELECT`).WithArgs(streamID).WillReturnRows(rows)

	_, err := repo.Get(context.Background(), streamID)
	assert.Error(t, err)
}

func TestPostgresCreate(t *testing.T) {
	now := time.Now()
	rec := &models.Record{
		StreamID: streamID, Controller: controller, Schema: "basicProfile",
		Content: map[string]any{"name": "Alice"}, Version: 1, UpdatedAt: now,
	}

	tests := []struct {
		name    string
		result  sql.Result
		execErr error
		wantErr error
	}{
		{name: "inserted", result: sqlmock.NewResult(0, 1)},
		{name: "already exists", result: sqlmock.NewResult(0, 0), wantErr: common.ErrVersionConflict},
		{name: "db error", execErr: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			exp := mock.ExpectExec(`(?s)INSERT\s+INTO\s+records.*ON\s+CONFLICT\s+DO\s+NOTHING`).
				WithArgs(streamID, controller, "basicProfile", `{"name":"Alice"}`, int64(1), now)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Create(context.Background(), rec)
			switch {
			case tt.execErr != nil:
				assert.ErrorIs(t, err, tt.execErr)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresUpdate_VersionConflict(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectExec(`(?s)UPDATE\s+records\s+SET.*WHERE\s+stream_id\s*=\s*\$4\s+AND\s+version\s*=\s*\$5`).
		WithArgs(`{"name":"Bob"}`, int64(3), now, streamID, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Record{
		StreamID: streamID, Content: map[string]any{"name": "Bob"}, Version: 3, UpdatedAt: now,
	}, 2)
	assert.ErrorIs(t, err, common.ErrVersionConflict)
}

func TestPostgresUpdate_OK(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectExec(`UPDATE\s+records`).
		WithArgs(`{}`, int64(2), now, streamID, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.Record{StreamID: streamID, Version: 2, UpdatedAt: now}, 1)
	assert.NoError(t, err)
}
