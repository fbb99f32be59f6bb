// Package auth registers users, verifies passwords and resolves API tokens.
//
// A user's API token is their stored bcrypt hash. It stays valid for as long
// as the credential exists, and credentials are never changed once written.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// CredentialRepository persists username to hash mappings.
type CredentialRepository interface {
	Create(ctx context.Context, username, hash string) error
	HashFor(ctx context.Context, username string) (string, error)
	UsernameForHash(ctx context.Context, hash string) (string, error)
}

// Service implements the credential operations on top of a repository.
type Service struct {
	repo   CredentialRepository
	cost   int
	logger *slog.Logger
}

// NewService creates a Service hashing with bcrypt.DefaultCost.
func NewService(repo CredentialRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost, logger: logger}
}

// WithCost returns a copy of s that hashes with the given bcrypt cost.
func (s *Service) WithCost(cost int) *Service {
	cp := *s
	cp.cost = cost
	return &cp
}

// Register stores a new credential. It fails with domain.ErrDuplicateUser if
// the username exists and domain.ErrInvalidInput for an empty username or
// password, or a username that cannot form a single URL path segment.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	if strings.ContainsFunc(username, invalidUsernameRune) {
		return fmt.Errorf("%w: username %q contains a reserved character", domain.ErrInvalidInput, username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.Create(ctx, username, string(hash)); err != nil {
		return err
	}
	s.logger.Info("user registered", "username", username)
	return nil
}

// invalidUsernameRune reports runes that may not appear in a username, which
// is used as a path segment of the user's home page.
func invalidUsernameRune(r rune) bool {
	return strings.ContainsRune("/?#%\\", r) || unicode.IsSpace(r) || unicode.IsControl(r)
}

// Verify checks a password and returns the user's token.
func (s *Service) Verify(ctx context.Context, username, password string) (string, error) {
	hash, err := s.repo.HashFor(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return hash, nil
}

// TokenFor returns the token of an existing user.
func (s *Service) TokenFor(ctx context.Context, username string) (string, error) {
	return s.repo.HashFor(ctx, username)
}

// UsernameFor resolves a token to its owner by exact match.
func (s *Service) UsernameFor(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrNotFound
	}
	return s.repo.UsernameForHash(ctx, token)
}

// EnsureUser registers username unless it already exists.
func (s *Service) EnsureUser(ctx context.Context, username, password string) error {
	err := s.Register(ctx, username, password)
	if errors.Is(err, domain.ErrDuplicateUser) {
		return nil
	}
	return err
}
