package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"finboard/pkg/cli"
	"finboard/pkg/store/gormstore"
	"finboard/process/sanitize"
)

func main() {
	os.Exit(run())
}

func run() int {
	dryRun := flag.Bool("dry-run", true, "only report orphaned rows")
	yes := flag.Bool("yes", false, "confirm deletion (required with --dry-run=false)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	env, err := cli.Open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.Close()

	gs, ok := env.Store.(*gormstore.Store)
	if !ok {
		env.Logger.Error("sanitize supports the postgres and sqlite backends only", "backend", env.Config.Backend)
		return 2
	}
	if !*dryRun && !*yes {
		fmt.Println("Destructive operation. Pass --yes to confirm execution. Aborting.")
		return 2
	}
	if _, err := sanitize.Run(ctx, gs.DB(), !*dryRun, os.Stdout); err != nil {
		env.Logger.Error("sanitize failed", "error", err)
		return 1
	}
	return 0
}
