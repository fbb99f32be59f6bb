package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// CredentialRepository stores username to password-hash mappings.
type CredentialRepository struct {
	db      DBTX
	dialect Dialect
}

func NewCredentialRepository(db DBTX, dialect Dialect) *CredentialRepository {
	return &CredentialRepository{db: db, dialect: dialect}
}

// Create inserts a credential. It returns domain.ErrDuplicateUser when the
// username is taken; an existing row is never modified.
func (r *CredentialRepository) Create(ctx context.Context, username, hash string) error {
	query := rebind(r.dialect,
		`INSERT INTO credentials (username, hashed_pw)
		 VALUES (?, ?)
		 ON CONFLICT (username) DO NOTHING`)

	res, err := r.db.ExecContext(ctx, query, username, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return domain.ErrDuplicateUser
	}
	return nil
}

// HashFor returns the stored hash for username.
func (r *CredentialRepository) HashFor(ctx context.Context, username string) (string, error) {
	query := rebind(r.dialect, `SELECT hashed_pw FROM credentials WHERE username = ?`)

	var hash string
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return hash, nil
}

// UsernameForHash is the reverse lookup used to resolve API tokens.
func (r *CredentialRepository) UsernameForHash(ctx context.Context, hash string) (string, error) {
	query := rebind(r.dialect, `SELECT username FROM credentials WHERE hashed_pw = ?`)

	var username string
	if err := r.db.QueryRowContext(ctx, query, hash).Scan(&username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return username, nil
}
