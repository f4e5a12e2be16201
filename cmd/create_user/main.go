// Command create_user adds a user from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"finboard/pkg/auth"
	"finboard/pkg/cli"
)

func main() {
	ctx := context.Background()
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, func(ctx context.Context) (*auth.Service, func(), error) {
		env, err := cli.Open(ctx)
		if err != nil {
			return nil, nil, err
		}
		return env.Auth(), func() { _ = env.Close() }, nil
	})
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type opener func(ctx context.Context) (*auth.Service, func(), error)

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, open opener) error {
	fs := flag.NewFlagSet("create_user", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address (login)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" || strings.TrimSpace(*name) == "" {
		fmt.Fprintln(stdout, "Usage: create_user -name <name> -email <email> [-password <password>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: name, email")
	}

	password := *passwordFlag
	if password == "" {
		var err error
		password, err = cli.ReadPassword(stdin, stdout, "Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if len(password) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	svc, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	user, _, err := svc.Register(ctx, *name, *email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "User %s created with ID %s\n", user.Email, user.ID)
	return nil
}
