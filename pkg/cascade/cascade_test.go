package cascade_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"finboard/models"
	"finboard/pkg/cascade"
	"finboard/pkg/store"
	"finboard/pkg/store/gormstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *gormstore.Store {
	t.Helper()
	st, err := gormstore.OpenSQLite(filepath.Join(t.TempDir(), "cascade.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type seeded struct {
	user    *models.User
	account *models.Account
	other   *models.Account
}

func seed(t *testing.T, st store.Store, email string) seeded {
	t.Helper()
	ctx := context.Background()
	u := &models.User{ID: models.NewID(), Name: "U", Email: email, PasswordHash: []byte("h")}
	require.NoError(t, st.CreateUser(ctx, u))
	var accts []*models.Account
	for i := 0; i < 2; i++ {
		a := &models.Account{ID: models.NewID(), UserID: u.ID, Name: "A", InitialBalance: decimal.NewFromInt(100), Type: models.AccountCash, Currency: "USD"}
		require.NoError(t, st.CreateAccount(ctx, a))
		for j := 0; j < 2; j++ {
			require.NoError(t, st.CreateExpense(ctx, &models.Expense{
				ID: models.NewID(), UserID: u.ID, AccountID: a.ID, Description: "x",
				Amount: decimal.NewFromInt(1), Date: time.Now().UTC(), Category: models.DefaultCategory,
			}))
		}
		accts = append(accts, a)
	}
	require.NoError(t, st.CreateTask(ctx, &models.Task{ID: models.NewID(), UserID: u.ID, Title: "t", Priority: models.PriorityLow}))
	return seeded{user: u, account: accts[0], other: accts[1]}
}

func TestDeleteAccountRemovesOnlyItsExpenses(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	s := seed(t, st, "a@example.com")
	c := cascade.NewCoordinator(st, nil)

	require.NoError(t, c.DeleteAccount(ctx, s.user.ID, s.account.ID))

	gone, err := st.ListExpenses(ctx, store.ExpenseFilter{UserID: s.user.ID, AccountID: s.account.ID})
	require.NoError(t, err)
	assert.Empty(t, gone)
	kept, err := st.ListExpenses(ctx, store.ExpenseFilter{UserID: s.user.ID, AccountID: s.other.ID})
	require.NoError(t, err)
	assert.Len(t, kept, 2)
}

func TestDeleteForeignAccountTouchesNothing(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	owner := seed(t, st, "owner@example.com")
	intruder := seed(t, st, "intruder@example.com")
	c := cascade.NewCoordinator(st, nil)

	err := c.DeleteAccount(ctx, intruder.user.ID, owner.account.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	left, err := st.ListExpenses(ctx, store.ExpenseFilter{UserID: owner.user.ID, AccountID: owner.account.ID})
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestDeleteUserRemovesEverything(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	s := seed(t, st, "bye@example.com")
	keep := seed(t, st, "stay@example.com")
	c := cascade.NewCoordinator(st, nil)

	require.NoError(t, c.DeleteUser(ctx, s.user.ID))

	_, err := st.UserByID(ctx, s.user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	accounts, _ := st.ListAccounts(ctx, s.user.ID)
	tasks, _ := st.ListTasks(ctx, s.user.ID)
	expenses, _ := st.ListExpenses(ctx, store.ExpenseFilter{UserID: s.user.ID})
	assert.Empty(t, accounts)
	assert.Empty(t, tasks)
	assert.Empty(t, expenses)

	others, _ := st.ListAccounts(ctx, keep.user.ID)
	assert.Len(t, others, 2)
}

// recorder logs the order of bulk deletes without a transaction.
type recorder struct {
	store.Store
	calls []string
}

func (r *recorder) WithinTx(ctx context.Context, fn func(context.Context, store.Store) error) error {
	return fn(ctx, r)
}

func (r *recorder) DeleteExpensesByUser(context.Context, string) (int64, error) {
	r.calls = append(r.calls, "expenses")
	return 0, nil
}

func (r *recorder) DeleteAccountsByUser(context.Context, string) (int64, error) {
	r.calls = append(r.calls, "accounts")
	return 0, nil
}

func (r *recorder) DeleteTasksByUser(context.Context, string) (int64, error) {
	r.calls = append(r.calls, "tasks")
	return 0, nil
}

func (r *recorder) DeleteUser(context.Context, string) error {
	r.calls = append(r.calls, "user")
	return nil
}

func TestDeleteUserOrderWithNothingToDelete(t *testing.T) {
	r := &recorder{}
	require.NoError(t, cascade.NewCoordinator(r, nil).DeleteUser(context.Background(), models.NewID()))
	assert.Equal(t, []string{"expenses", "accounts", "tasks", "user"}, r.calls)
}
