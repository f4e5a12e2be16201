// Command reset_password sets a new password for an existing user.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"finboard/pkg/auth"
	"finboard/pkg/cli"
)

// passwordSetter is the part of auth.Service this command needs.
type passwordSetter interface {
	SetPassword(ctx context.Context, email, password string) error
}

var _ passwordSetter = (*auth.Service)(nil)

func main() {
	ctx := context.Background()
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, func(ctx context.Context) (passwordSetter, func(), error) {
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

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer,
	open func(context.Context) (passwordSetter, func(), error)) error {
	fs := flag.NewFlagSet("reset_password", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "email of the user to reset")
	password := fs.String("password", "", "new password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("--email is required")
	}
	if *password == "" {
		p, err := cli.ReadPassword(stdin, stdout, "New password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		*password = p
	}
	if len(*password) < auth.MinPasswordLength {
		return fmt.Errorf("password too short (min %d)", auth.MinPasswordLength)
	}

	svc, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.SetPassword(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Password reset for user %s\n", auth.NormalizeEmail(*email))
	return nil
}
