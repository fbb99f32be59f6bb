package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// Local keeps attachments in a directory. Names are resolved inside the
// directory and cannot escape it.
type Local struct {
	root *os.Root
}

// NewLocal opens dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open attachment dir: %w", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) Save(_ context.Context, name string, r io.Reader) error {
	f, err := l.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = l.root.Remove(name)
		return fmt.Errorf("write attachment: %w", err)
	}
	return f.Close()
}

// Open returns domain.ErrNotFound for names that do not exist, are
// directories, or point outside the directory.
func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := l.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, domain.ErrNotFound
	}
	return f, nil
}

// Remove deletes a stored attachment. A missing name is not an error.
func (l *Local) Remove(_ context.Context, name string) error {
	if err := l.root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}

func (l *Local) Close() error {
	return l.root.Close()
}
