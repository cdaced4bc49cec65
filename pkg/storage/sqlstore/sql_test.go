package sqlstore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/platinummonkey/pluginlinks/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	store, err := Open(context.Background(), DialectSQLite, ":memory:", "pluginlinks_options", 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLite_SetGetDelete(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "pluginlinks_hash-plugins", []byte("abc"), 0))
	got, err := store.Get(ctx, "pluginlinks_hash-plugins")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	// Upsert replaces the value
	require.NoError(t, store.Set(ctx, "pluginlinks_hash-plugins", []byte("def"), 0))
	got, err = store.Get(ctx, "pluginlinks_hash-plugins")
	require.NoError(t, err)
	assert.Equal(t, []byte("def"), got)

	require.NoError(t, store.Delete(ctx, "pluginlinks_hash-plugins"))
	_, err = store.Get(ctx, "pluginlinks_hash-plugins")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_TransientExpiry(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "pluginlinks_plugins", []byte("[]"), 24*time.Hour))
	require.NoError(t, store.Set(ctx, "active_plugins", []byte("[]"), 0))

	now = now.Add(23 * time.Hour)
	_, err := store.Get(ctx, "pluginlinks_plugins")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = store.Get(ctx, "pluginlinks_plugins")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Options never expire
	_, err = store.Get(ctx, "active_plugins")
	assert.NoError(t, err)
}

func TestSQLite_PurgeExpired(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), 0))

	now = now.Add(2 * time.Minute)
	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = store.Get(ctx, "b")
	assert.NoError(t, err)
}

func TestNew_RejectsBadInput(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = New(context.Background(), db, DialectPostgres, "options; DROP TABLE x")
	assert.Error(t, err)

	_, err = New(context.Background(), db, Dialect("mysql"), "options")
	assert.Error(t, err)
}

func setupPostgresMock(t *testing.T) (*SQLStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pluginlinks_options").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := New(context.Background(), db, DialectPostgres, "pluginlinks_options")
	require.NoError(t, err)
	return store, mock, db
}

func TestPostgres_GetUsesNumberedPlaceholders(t *testing.T) {
	store, mock, _ := setupPostgresMock(t)

	rows := sqlmock.NewRows([]string{"value", "expires_at"}).AddRow([]byte("hash"), int64(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value, expires_at FROM pluginlinks_options WHERE name = $1")).
		WithArgs("pluginlinks_hash-plugins").
		WillReturnRows(rows)

	got, err := store.Get(context.Background(), "pluginlinks_hash-plugins")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetMissing(t *testing.T) {
	store, mock, _ := setupPostgresMock(t)

	mock.ExpectQuery("SELECT value, expires_at FROM pluginlinks_options").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetWritesDeadline(t *testing.T) {
	store, mock, _ := setupPostgresMock(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return now })

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pluginlinks_options (name, value, expires_at) VALUES ($1, $2, $3)")).
		WithArgs("pluginlinks_plugins", sqlmock.AnyArg(), now.Add(time.Hour).UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Set(context.Background(), "pluginlinks_plugins", []byte("[]"), time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ExpiredRowIsDeleted(t *testing.T) {
	store, mock, _ := setupPostgresMock(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return now })

	rows := sqlmock.NewRows([]string{"value", "expires_at"}).AddRow([]byte("old"), now.Add(-time.Second).UnixMilli())
	mock.ExpectQuery("SELECT value, expires_at FROM pluginlinks_options").
		WithArgs("pluginlinks_plugins").
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM pluginlinks_options WHERE name = $1")).
		WithArgs("pluginlinks_plugins").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := store.Get(context.Background(), "pluginlinks_plugins")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_Add(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return now })

	added, err := store.Add(ctx, "test_nonce_used-1", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(ctx, "test_nonce_used-1", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, added)

	got, err := store.Get(ctx, "test_nonce_used-1")
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))

	// An expired row is replaced
	now = now.Add(time.Minute)
	added, err = store.Add(ctx, "test_nonce_used-1", []byte("3"), time.Minute)
	require.NoError(t, err)
	assert.True(t, added)

	// Options never expire, so they are never replaced
	require.NoError(t, store.Set(ctx, "active_plugins", []byte("[]"), 0))
	now = now.Add(365 * 24 * time.Hour)
	added, err = store.Add(ctx, "active_plugins", []byte(`["a"]`), 0)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestPostgres_AddIsConditionalUpsert(t *testing.T) {
	store, mock, _ := setupPostgresMock(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return now })

	query := regexp.QuoteMeta("WHERE pluginlinks_options.expires_at <> 0 AND pluginlinks_options.expires_at <= $4")
	mock.ExpectExec(query).
		WithArgs("test_nonce_used-1", sqlmock.AnyArg(), now.Add(time.Hour).UnixMilli(), now.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(query).
		WithArgs("test_nonce_used-1", sqlmock.AnyArg(), now.Add(time.Hour).UnixMilli(), now.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	added, err := store.Add(context.Background(), "test_nonce_used-1", []byte("1"), time.Hour)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(context.Background(), "test_nonce_used-1", []byte("1"), time.Hour)
	require.NoError(t, err)
	assert.False(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}
