package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCredentialRepository_PostgresPlaceholders(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCredentialRepository(db, DialectPostgres)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+credentials\s*\(username,\s*hashed_pw\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s*\(username\)\s*DO\s+NOTHING$`).
		WithArgs("alice", "hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), "alice", "hash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_CreateNoRowsIsDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCredentialRepository(db, DialectSQLite)

	mock.ExpectExec(`INSERT\s+INTO\s+credentials`).
		WithArgs("alice", "hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), "alice", "hash")
	require.ErrorIs(t, err, domain.ErrDuplicateUser)
}

func TestCredentialRepository_DBError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCredentialRepository(db, DialectSQLite)

	mock.ExpectQuery(`SELECT\s+hashed_pw\s+FROM\s+credentials`).
		WithArgs("alice").
		WillReturnError(errors.New("db down"))

	_, err := repo.HashFor(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestReportRepository_ListDBError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepository(db, DialectPostgres)

	mock.ExpectQuery(`(?s)SELECT\s+user_id.*FROM\s+reports\s+ORDER\s+BY\s+id`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestReportRepository_InsertPostgres(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepository(db, DialectPostgres)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+reports.*VALUES\s*\(\$1,.*\$13\)`).
		WithArgs("alice", 1.0, 2.0, nil, nil, "desc", nil, nil, nil, nil, nil, nil, "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), domain.Report{UserID: "alice", Latitude: 1, Longitude: 2, Description: "desc"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
