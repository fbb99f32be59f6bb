// Command useradd registers a report service account from the terminal and
// prints its API token. The database is taken from DB_DRIVER and DB_DSN.
//
// Usage:
//
//	go run ./cmd/useradd -username alice
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/couchcryptid/incident-report-service/internal/auth"
	"github.com/couchcryptid/incident-report-service/internal/config"
	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
	"github.com/couchcryptid/incident-report-service/internal/store"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

func main() {
	username := flag.String("username", "", "account name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	svc := auth.NewService(st.Credentials, logger)
	if err := run(ctx, svc, *username, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "useradd:", err)
		os.Exit(1)
	}
}

type registrar interface {
	Register(ctx context.Context, username, password string) error
	TokenFor(ctx context.Context, username string) (string, error)
}

func run(ctx context.Context, svc registrar, username string, in *os.File, out io.Writer) error {
	reader := bufio.NewReader(in)
	if username == "" {
		fmt.Fprint(out, "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		username = strings.TrimSpace(line)
	}

	password, err := promptPassword(in, reader, out, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(in, reader, out, "Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	if err := svc.Register(ctx, username, password); err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			return fmt.Errorf("user %s already exists", username)
		}
		return err
	}
	token, err := svc.TokenFor(ctx, username)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "User %s registered successfully!\nAPI key: %s\n", username, token)
	return nil
}

// promptPassword reads without echo from a terminal and falls back to a
// plain line read when input is piped.
func promptPassword(in *os.File, reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		pw, err := readPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
