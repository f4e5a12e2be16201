// Command seed_demo creates a demo user and fills it with accounts, expenses
// and tasks.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"finboard/pkg/apperr"
	"finboard/pkg/auth"
	"finboard/pkg/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	email := flag.String("email", "demo@example.com", "demo user email")
	password := flag.String("password", "demo1234", "demo user password")
	months := flag.Int("months", 3, "months of expenses to generate")
	perMonth := flag.Int("per-month", 20, "expenses per month")
	seed := flag.Uint64("seed", 1, "random seed")
	dry := flag.Bool("dry-run", false, "print what would be created without writing")
	flag.Parse()

	if *months < 1 || *perMonth < 0 {
		fmt.Fprintln(os.Stderr, "--months must be >= 1 and --per-month >= 0")
		return 2
	}

	ctx := context.Background()
	env, err := cli.Open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.Close()

	userID := "dry-run"
	if !*dry {
		user, _, err := env.Auth().Register(ctx, "Demo", *email, *password)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindConflict {
				env.Logger.Error("demo user already exists", "email", auth.NormalizeEmail(*email))
			} else {
				env.Logger.Error("create demo user", "error", err)
			}
			return 1
		}
		userID = user.ID
	}

	s := &seeder{st: env.Store, out: os.Stdout, rng: rand.New(rand.NewPCG(*seed, 0)), now: time.Now().UTC(), dryRun: *dry}
	if _, err := s.seed(ctx, userID, *months, *perMonth); err != nil {
		env.Logger.Error("seed failed", "error", err)
		return 1
	}
	return 0
}
