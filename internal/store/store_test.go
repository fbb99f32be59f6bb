package store

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.CheckReadiness(context.Background()))
}

func TestMigrate_LogsThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s := openMemory(t)
	assert.Contains(t, buf.String(), `"msg":"migration applied"`)
	assert.Contains(t, buf.String(), `"component":"migrate"`)
	assert.Contains(t, buf.String(), `"version":1`)

	buf.Reset()
	require.NoError(t, s.Migrate(context.Background()))
	assert.NotContains(t, buf.String(), "migration applied", "nothing pending on a second run")
}

func TestCredentials_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.Credentials.Create(ctx, "alice", "hash-a"))

	hash, err := s.Credentials.HashFor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash-a", hash)

	user, err := s.Credentials.UsernameForHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestCredentials_DuplicateLeavesOriginal(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.Credentials.Create(ctx, "alice", "hash-a"))
	err := s.Credentials.Create(ctx, "alice", "hash-b")
	require.ErrorIs(t, err, domain.ErrDuplicateUser)

	hash, err := s.Credentials.HashFor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash-a", hash)
}

func TestCredentials_NotFound(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	_, err := s.Credentials.HashFor(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Credentials.UsernameForHash(ctx, "no-such-hash")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReports_InsertAndListPreservesNulls(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	full := domain.Report{
		UserID:      "alice",
		Latitude:    47.37,
		Longitude:   8.54,
		State:       ptr("Zurich"),
		Country:     ptr("Switzerland"),
		Description: "Flooded underpass",
		Category:    ptr(domain.CategoryDangerous),
		Temperature: ptr(11.2),
		Humidity:    ptr(90.0),
		Rain:        ptr(3.5),
		Date:        ptr("2024-04-26"),
		Time:        ptr("08:15:00"),
		Filepath:    "files/20240426-081500_underpass.jpg",
	}
	bare := domain.Report{
		UserID:      "bob",
		Latitude:    1.5,
		Longitude:   2.5,
		Description: "Nothing enriched",
	}

	require.NoError(t, s.Reports.Insert(ctx, full))
	require.NoError(t, s.Reports.Insert(ctx, bare))

	got, err := s.Reports.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, full, got[0])
	assert.Equal(t, bare, got[1])
	assert.Nil(t, got[1].State)
	assert.Nil(t, got[1].Category)
	assert.Empty(t, got[1].Filepath)
}

func TestReports_ListInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	for _, u := range []string{"c", "a", "b"} {
		require.NoError(t, s.Reports.Insert(ctx, domain.Report{UserID: u, Description: "x"}))
	}
	got, err := s.Reports.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].UserID)
	assert.Equal(t, "a", got[1].UserID)
	assert.Equal(t, "b", got[2].UserID)
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, q, rebind(DialectSQLite, q))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", rebind(DialectPostgres, q))
}
