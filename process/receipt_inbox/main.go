// Command receipt_inbox attaches receipt files dropped into a directory to
// expenses. Each file is named after the expense it belongs to:
// <expenseId>.<ext>. Attached files move to <dir>/processed, unusable ones
// to <dir>/rejected.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finboard/pkg/auth"
	"finboard/pkg/cli"
	"finboard/pkg/store"
)

// openEnv is swapped in tests.
var openEnv = cli.Open

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the exit code so deferred cleanup runs before the process exits.
func run(args []string) int {
	fs := flag.NewFlagSet("receipt_inbox", flag.ContinueOnError)
	dir := fs.String("dir", "inbox", "directory to scan for receipt files")
	email := fs.String("email", "", "owner of the expenses (required)")
	dryRun := fs.Bool("dry-run", false, "validate and report without writing")
	watch := fs.Bool("watch", false, "keep watching the directory for new files")
	workers := fs.Int("workers", 0, "worker pool size (default NumCPU)")
	verbose := fs.Bool("verbose", false, "verbose per-file logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *email == "" {
		fmt.Fprintln(os.Stderr, "--email is required")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.Close()

	user, err := env.Store.UserByEmail(ctx, auth.NormalizeEmail(*email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			env.Logger.Error("user not found", "email", *email)
		} else {
			env.Logger.Error("user lookup failed", "error", err)
		}
		return 1
	}

	in := &inbox{
		dir:     *dir,
		userID:  user.ID,
		st:      env.Store,
		logger:  env.Logger.With("component", "receipt_inbox"),
		dryRun:  *dryRun,
		verbose: *verbose,
	}
	in.scan(ctx, *workers)
	if *watch && !*dryRun {
		if err := in.watch(ctx, *workers, 300*time.Millisecond); err != nil {
			env.Logger.Error("watch failed", "error", err)
			return 1
		}
	}
	env.Logger.Info("inbox done", "summary", in.stats.String())
	return 0
}
