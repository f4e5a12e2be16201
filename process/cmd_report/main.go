package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"finboard/pkg/auth"
	"finboard/pkg/cli"
	"finboard/process/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	email := flag.String("email", "", "user to report for")
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching expenses")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "--email is required")
		return 2
	}

	ctx := context.Background()
	env, err := cli.Open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.Close()

	user, err := env.Store.UserByEmail(ctx, auth.NormalizeEmail(*email))
	if err != nil {
		env.Logger.Error("user not found", "email", *email, "error", err)
		return 1
	}
	r, err := report.Build(ctx, env.Store, user.ID, *month)
	if err != nil {
		env.Logger.Error("report failed", "error", err)
		return 1
	}
	if err := r.Write(os.Stdout, user.Email, *list); err != nil {
		env.Logger.Error("write report", "error", err)
		return 1
	}
	return 0
}
