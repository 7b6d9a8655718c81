package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	did = "did:pkh:eip155:5:0xabc"

	insertQuery = `(?s)^INSERT\s+INTO\s+refresh_tokens\s*\(subject,\s*token,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
	selectQuery = `(?s)^SELECT\s+subject,\s*expires_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
	deleteQuery = `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
)

func mockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestPostgresRepository_Create(t *testing.T) {
	t.Run("stores subject and expiry", func(t *testing.T) {
		repo, mock := mockRepo(t)
		mock.ExpectExec(insertQuery).
			WithArgs(did, "rt-1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), did, "rt-1", 24*time.Hour))
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		repo, mock := mockRepo(t)
		mock.ExpectExec(insertQuery).
			WithArgs(did, "rt-1", sqlmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))

		err := repo.Create(context.Background(), did, "rt-1", time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error performing sql request")
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestPostgresRepository_Find(t *testing.T) {
	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		want    string
		wantErr error
		errText string
	}{
		{
			name: "found",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectQuery).WithArgs("rt-1").
					WillReturnRows(sqlmock.NewRows([]string{"subject", "expires_at"}).AddRow(did, expires))
			},
			want: did,
		},
		{
			name: "unknown token",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectQuery).WithArgs("rt-1").WillReturnError(sql.ErrNoRows)
			},
			wantErr: common.ErrorNotFound,
		},
		{
			name: "driver error",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectQuery).WithArgs("rt-1").WillReturnError(errors.New("timeout"))
			},
			errText: "db error: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := mockRepo(t)
			tt.setup(mock)

			got, err := repo.Find(context.Background(), "rt-1")
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.EqualError(t, err, tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got.Subject)
				assert.Equal(t, "rt-1", got.Token)
				assert.True(t, got.Expires.Equal(expires))
			}
		})
	}
}

func TestPostgresRepository_Delete(t *testing.T) {
	repo, mock := mockRepo(t)
	mock.ExpectExec(deleteQuery).WithArgs("rt-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQuery).WithArgs("rt-2").WillReturnError(errors.New("read only"))

	require.NoError(t, repo.Delete(context.Background(), "rt-1"))
	assert.EqualError(t, repo.Delete(context.Background(), "rt-2"), "db error: read only")
}
