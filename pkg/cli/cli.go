// Package cli holds the start-up steps shared by the operator commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"finboard/pkg/auth"
	"finboard/pkg/config"
	"finboard/pkg/logging"
	"finboard/pkg/store"
	"finboard/pkg/store/backend"
	"finboard/pkg/token"

	"golang.org/x/term"
)

// Env is what a command needs to talk to the store.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
	Store  store.Store
}

// Close releases the store.
func (e *Env) Close() error {
	return e.Store.Close()
}

// Auth returns an auth service over the env's store.
func (e *Env) Auth() *auth.Service {
	return auth.NewService(e.Store, token.NewService(e.Config.JWTSecret, e.Config.JWTExpiresIn))
}

// Open loads and validates the configuration and opens the store. Logs go
// to stderr so command output stays clean.
func Open(ctx context.Context) (*Env, error) {
	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.IsProduction())
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Env{Config: cfg, Logger: logger, Store: st}, nil
}

// ReadPassword prompts for a password without echo on a terminal, or reads
// one line from stdin otherwise.
func ReadPassword(stdin io.Reader, stdout io.Writer, prompt string) (string, error) {
	fmt.Fprint(stdout, prompt)
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stdout)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
