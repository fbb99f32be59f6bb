package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// memRepo is an in-memory CredentialRepository.
type memRepo struct {
	mu     sync.Mutex
	hashes map[string]string
	err    error
}

func newMemRepo() *memRepo { return &memRepo{hashes: map[string]string{}} }

func (m *memRepo) Create(_ context.Context, username, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.hashes[username]; ok {
		return domain.ErrDuplicateUser
	}
	m.hashes[username] = hash
	return nil
}

func (m *memRepo) HashFor(_ context.Context, username string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	h, ok := m.hashes[username]
	if !ok {
		return "", domain.ErrNotFound
	}
	return h, nil
}

func (m *memRepo) UsernameForHash(_ context.Context, hash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for u, h := range m.hashes {
		if h == hash {
			return u, nil
		}
	}
	return "", domain.ErrNotFound
}

func newTestService(repo CredentialRepository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))).WithCost(bcrypt.MinCost)
}

func TestRegister_StoresSaltedHash(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	require.NoError(t, svc.Register(context.Background(), "alice", "s3cret"))

	hash := repo.hashes["alice"]
	assert.NotEqual(t, "s3cret", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestRegister_Duplicate(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "first"))
	original := repo.hashes["alice"]

	err := svc.Register(ctx, "alice", "second")
	require.ErrorIs(t, err, domain.ErrDuplicateUser)
	assert.Equal(t, original, repo.hashes["alice"], "existing credential unchanged")
}

func TestRegister_EmptyInput(t *testing.T) {
	svc := newTestService(newMemRepo())

	require.ErrorIs(t, svc.Register(context.Background(), "", "pw"), domain.ErrInvalidInput)
	require.ErrorIs(t, svc.Register(context.Background(), "bob", ""), domain.ErrInvalidInput)
}

func TestRegister_ReservedUsernameCharacters(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	for _, name := range []string{"a/b", "a?b", "a#b", "a%2Fb", "a b", "a\tb", "a\\b"} {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, svc.Register(context.Background(), name, "pw"), domain.ErrInvalidInput)
		})
	}
	assert.Empty(t, repo.hashes)

	require.NoError(t, svc.Register(context.Background(), "anna.m-ü_1", "pw"))
}

func TestVerify(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "alice", "s3cret"))

	token, err := svc.Verify(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.Verify(ctx, "alice", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Verify(ctx, "mallory", "s3cret")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerify_RepositoryFailureIsNotInvalidCredentials(t *testing.T) {
	repo := newMemRepo()
	repo.err = errors.New("db down")
	svc := newTestService(repo)

	_, err := svc.Verify(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestToken_StableAndResolvable(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "alice", "s3cret"))

	fromVerify, err := svc.Verify(ctx, "alice", "s3cret")
	require.NoError(t, err)
	again, err := svc.Verify(ctx, "alice", "s3cret")
	require.NoError(t, err)
	fromLookup, err := svc.TokenFor(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, fromVerify, again)
	assert.Equal(t, fromVerify, fromLookup)

	user, err := svc.UsernameFor(ctx, fromVerify)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestUsernameFor_Unknown(t *testing.T) {
	svc := newTestService(newMemRepo())

	_, err := svc.UsernameFor(context.Background(), "not-a-token")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.UsernameFor(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnsureUser_Idempotent(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.EnsureUser(ctx, "admin", "admin"))
	first := repo.hashes["admin"]
	require.NoError(t, svc.EnsureUser(ctx, "admin", "other"))
	assert.Equal(t, first, repo.hashes["admin"])
}
