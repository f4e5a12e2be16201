package sanitize

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"finboard/models"
	"finboard/pkg/store/gormstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*gormstore.Store, string) {
	t.Helper()
	st, err := gormstore.OpenSQLite(filepath.Join(t.TempDir(), "sanitize.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()

	user := func(email string) *models.User {
		u := &models.User{ID: models.NewID(), Name: "u", Email: email, PasswordHash: []byte("x")}
		require.NoError(t, st.CreateUser(ctx, u))
		return u
	}
	account := func(userID string) *models.Account {
		a := &models.Account{ID: models.NewID(), UserID: userID, Name: "a", Type: models.AccountCash, Currency: "USD"}
		require.NoError(t, st.CreateAccount(ctx, a))
		return a
	}
	expense := func(userID, accountID string) {
		e := &models.Expense{ID: models.NewID(), UserID: userID, AccountID: accountID, Description: "e",
			Amount: decimal.NewFromInt(1), Date: time.Now().UTC(), Category: models.DefaultCategory}
		require.NoError(t, st.CreateExpense(ctx, e))
	}

	gone := user("gone@example.com")
	ga := account(gone.ID)
	expense(gone.ID, ga.ID)
	require.NoError(t, st.CreateTask(ctx, &models.Task{ID: models.NewID(), UserID: gone.ID, Title: "t", Priority: models.PriorityLow}))

	kept := user("kept@example.com")
	ka := account(kept.ID)
	expense(kept.ID, ka.ID)
	expense(kept.ID, models.NewID())

	require.NoError(t, st.DeleteUser(ctx, gone.ID))
	return st, kept.ID
}

func TestScanAndSweep(t *testing.T) {
	st, keptID := seed(t)
	ctx := context.Background()

	o, err := Scan(ctx, st.DB())
	require.NoError(t, err)
	assert.Equal(t, Orphans{Accounts: 1, Tasks: 1, Expenses: 1, AccountExpenses: 1}, o)

	o, err = Sweep(ctx, st.DB())
	require.NoError(t, err)
	assert.EqualValues(t, 4, o.Total())

	o, err = Scan(ctx, st.DB())
	require.NoError(t, err)
	assert.Zero(t, o.Total())

	left, err := st.ListAccounts(ctx, keptID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestRunDryRunKeepsRows(t *testing.T) {
	st, _ := seed(t)
	var out bytes.Buffer

	o, err := Run(context.Background(), st.DB(), false, &out)
	require.NoError(t, err)
	assert.EqualValues(t, 4, o.Total())
	assert.Contains(t, out.String(), "dry-run enabled")

	again, err := Scan(context.Background(), st.DB())
	require.NoError(t, err)
	assert.Equal(t, o, again)

	out.Reset()
	_, err = Run(context.Background(), st.DB(), true, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "deleted: accounts=1 tasks=1")

	out.Reset()
	_, err = Run(context.Background(), st.DB(), true, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "nothing to do")
}
