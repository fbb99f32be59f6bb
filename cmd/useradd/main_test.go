package main

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

type fakeRegistrar struct {
	users map[string]string
}

func (f *fakeRegistrar) Register(_ context.Context, username, password string) error {
	if _, ok := f.users[username]; ok {
		return domain.ErrDuplicateUser
	}
	f.users[username] = "hash-of-" + password
	return nil
}

func (f *fakeRegistrar) TokenFor(_ context.Context, username string) (string, error) {
	return f.users[username], nil
}

// pipeInput returns a non-terminal file holding input.
func pipeInput(t *testing.T, input string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString(input)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRun_RegistersAndPrintsToken(t *testing.T) {
	reg := &fakeRegistrar{users: map[string]string{}}
	var out bytes.Buffer

	err := run(context.Background(), reg, "", pipeInput(t, "alice\ns3cret\ns3cret\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, "hash-of-s3cret", reg.users["alice"])
	assert.Contains(t, out.String(), "User alice registered successfully!")
	assert.Contains(t, out.String(), "API key: hash-of-s3cret")
}

func TestRun_PasswordMismatch(t *testing.T) {
	reg := &fakeRegistrar{users: map[string]string{}}

	err := run(context.Background(), reg, "alice", pipeInput(t, "one\ntwo\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match")
	assert.Empty(t, reg.users)
}

func TestRun_DuplicateUser(t *testing.T) {
	reg := &fakeRegistrar{users: map[string]string{"alice": "x"}}

	err := run(context.Background(), reg, "alice", pipeInput(t, "pw\npw\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}
