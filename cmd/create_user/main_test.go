package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finboard/pkg/apperr"
	"finboard/pkg/auth"
	"finboard/pkg/store/gormstore"
	"finboard/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteOpener(t *testing.T) (opener, *auth.Service) {
	t.Helper()
	st, err := gormstore.OpenSQLite(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { _ = st.Close() })
	svc := auth.NewService(st, token.NewService("cli-secret", time.Hour))
	return func(context.Context) (*auth.Service, func(), error) { return svc, func() {}, nil }, svc
}

func TestCreateUserWithPrompt(t *testing.T) {
	open, svc := sqliteOpener(t)
	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{"-name", "Ana", "-email", "Ana@Example.com"},
		strings.NewReader("s3cret!\n"), &out, &errOut, open)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Password: ")
	assert.Contains(t, out.String(), "User ana@example.com created")

	_, _, err = svc.Login(context.Background(), "ana@example.com", "s3cret!")
	assert.NoError(t, err)
}

func TestCreateUserRejectsDuplicatesAndBadInput(t *testing.T) {
	open, _ := sqliteOpener(t)
	ctx := context.Background()
	var out, errOut bytes.Buffer
	args := []string{"-name", "Ana", "-email", "ana@example.com", "-password", "s3cret!"}
	require.NoError(t, run(ctx, args, nil, &out, &errOut, open))

	err := run(ctx, args, nil, &out, &errOut, open)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	err = run(ctx, []string{"-email", "x@example.com"}, nil, &out, &errOut, open)
	assert.ErrorContains(t, err, "missing required flags")

	err = run(ctx, []string{"-name", "X", "-email", "x@example.com", "-password", "123"}, nil, &out, &errOut, open)
	assert.ErrorContains(t, err, "at least 6")
}

func TestCreateUserAppliesAccountRules(t *testing.T) {
	open, svc := sqliteOpener(t)
	ctx := context.Background()
	var out, errOut bytes.Buffer

	long := strings.Repeat("n", auth.MaxNameLength+1)
	err := run(ctx, []string{"-name", long, "-email", "long@example.com", "-password", "s3cret!"}, nil, &out, &errOut, open)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorContains(t, err, "name cannot exceed 50 characters")

	err = run(ctx, []string{"-name", "Bad", "-email", "not-an-email", "-password", "s3cret!"}, nil, &out, &errOut, open)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorContains(t, err, "please provide a valid email")

	_, _, err = svc.Login(ctx, "long@example.com", "s3cret!")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}
