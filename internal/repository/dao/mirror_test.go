package dao

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	selectByKey    = "SELECT key, body, version, updated_at FROM documents WHERE key = ?"
	selectByPrefix = "SELECT key, body, version, updated_at FROM documents WHERE substr(key, 1, ?) = ? ORDER BY key"
)

func newMockMirror(t *testing.T) (*MirrorDAO, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewMirrorDAO(db), mock
}

func TestMirrorDAO_FindByKey(t *testing.T) {
	ctx := context.Background()
	updatedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    Document
		wantErr error
	}{
		{
			name: "found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(selectByKey)).
					WithArgs("roster").
					WillReturnRows(sqlmock.NewRows([]string{"key", "body", "version", "updated_at"}).
						AddRow("roster", []byte(`[]`), int64(3), updatedAt.Format(time.RFC3339Nano)))
			},
			want: Document{Key: "roster", Body: []byte(`[]`), Version: 3, UpdatedAt: updatedAt},
		},
		{
			name: "missing key maps to ErrDocumentNotFound",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(selectByKey)).
					WithArgs("roster").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrDocumentNotFound,
		},
		{
			name: "driver error is passed through",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(selectByKey)).
					WithArgs("roster").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mock := newMockMirror(t)
			tt.mock(mock)

			got, err := d.FindByKey(ctx, "roster")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMirrorDAO_FindByPrefix(t *testing.T) {
	d, mock := newMockMirror(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectByPrefix)).
		WithArgs(len("profile:"), "profile:").
		WillReturnRows(sqlmock.NewRows([]string{"key", "body", "version", "updated_at"}).
			AddRow("profile:a_1", []byte(`{}`), int64(1), "2024-05-01T10:00:00Z").
			AddRow("profile:b_2", []byte(`{}`), int64(2), "2024-05-01T10:00:00Z"))

	got, err := d.FindByPrefix(context.Background(), "profile:")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "profile:a_1", got[0].Key)
	assert.Equal(t, int64(2), got[1].Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMirrorDAO_Put(t *testing.T) {
	d, mock := newMockMirror(t)
	updatedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents (key, body, version, updated_at) VALUES (?, ?, ?, ?)")).
		WithArgs("event", []byte(`{"a":1}`), int64(4), updatedAt.Format(time.RFC3339Nano)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := d.Put(context.Background(), Document{Key: "event", Body: []byte(`{"a":1}`), Version: 4, UpdatedAt: updatedAt})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMirrorDAO_Delete(t *testing.T) {
	d, mock := newMockMirror(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE key = ?")).
		WithArgs("session:abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, d.Delete(context.Background(), "session:abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMirrorDAO_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	d := NewMirrorDAO(db)
	require.NoError(t, d.CreateTables(ctx))

	for _, key := range []string{"profile:홍길동_01012345678", "profile%x", "roster", "session:1"} {
		require.NoError(t, d.Put(ctx, Document{Key: key, Body: []byte(`{}`), Version: 1}))
	}
	require.NoError(t, d.Put(ctx, Document{Key: "roster", Body: []byte(`[{"name":"a"}]`), Version: 2}))

	got, err := d.FindByKey(ctx, "roster")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"a"}]`, string(got.Body))
	assert.Equal(t, int64(2), got.Version)
	assert.False(t, got.UpdatedAt.IsZero())

	profiles, err := d.FindByPrefix(ctx, "profile:")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "profile:홍길동_01012345678", profiles[0].Key)

	require.NoError(t, d.Delete(ctx, "session:1"))
	_, err = d.FindByKey(ctx, "session:1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
