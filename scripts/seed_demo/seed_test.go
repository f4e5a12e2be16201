package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"finboard/models"
	"finboard/pkg/store"
	"finboard/pkg/store/gormstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *gormstore.Store {
	t.Helper()
	st, err := gormstore.OpenSQLite(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSeedCreatesWorkspace(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	u := &models.User{ID: models.NewID(), Name: "Demo", Email: "demo@example.com", PasswordHash: []byte("x")}
	require.NoError(t, st.CreateUser(ctx, u))

	now := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	s := &seeder{st: st, out: &out, rng: rand.New(rand.NewPCG(7, 0)), now: now}
	res, err := s.seed(ctx, u.ID, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, seedResult{accounts: 3, expenses: 10, tasks: 3}, res)

	accounts, err := st.ListAccounts(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 3)

	since := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	expenses, err := st.ListExpenses(ctx, store.ExpenseFilter{UserID: u.ID})
	require.NoError(t, err)
	require.Len(t, expenses, 10)
	for _, e := range expenses {
		assert.False(t, e.Date.Before(since), e.Date)
		assert.False(t, e.Date.After(now), e.Date)
		assert.True(t, e.Amount.IsPositive())
	}

	tasks, err := st.ListTasks(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
	assert.Contains(t, out.String(), "seeded accounts=3 expenses=10 tasks=3 dry_run=false")
}

func TestSeedDryRunWritesNothing(t *testing.T) {
	st := openStore(t)
	userID := models.NewID()
	var out bytes.Buffer
	s := &seeder{st: st, out: &out, rng: rand.New(rand.NewPCG(1, 0)), now: time.Now().UTC(), dryRun: true}
	res, err := s.seed(context.Background(), userID, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.expenses)

	accounts, err := st.ListAccounts(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
