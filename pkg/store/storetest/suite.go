// Package storetest holds the behaviour every store.Store backend must share.
// Backend packages run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"strings"
	"time"

	"finboard/models"
	"finboard/pkg/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Suite is a testify suite parameterised by a store factory.
type Suite struct {
	suite.Suite
	// New returns an empty store for each test.
	New func() store.Store

	st  store.Store
	ctx context.Context
}

func (s *Suite) SetupTest() {
	s.st = s.New()
	s.ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.st == nil {
		return
	}
	if d, ok := s.st.(interface{ Drop(context.Context) error }); ok {
		_ = d.Drop(context.Background())
	}
	_ = s.st.Close()
}

func (s *Suite) user(email string) *models.User {
	u := &models.User{ID: models.NewID(), Name: "Test", Email: email, PasswordHash: []byte("hash")}
	require.NoError(s.T(), s.st.CreateUser(s.ctx, u))
	return u
}

func (s *Suite) account(userID string, initial int64) *models.Account {
	a := &models.Account{
		ID: models.NewID(), UserID: userID, Name: "Main", InitialBalance: decimal.NewFromInt(initial),
		Type: models.AccountChecking, Currency: "USD", Color: models.DefaultAccountColor,
	}
	require.NoError(s.T(), s.st.CreateAccount(s.ctx, a))
	return a
}

func (s *Suite) expense(userID, accountID string, amount int64, date time.Time) *models.Expense {
	e := &models.Expense{
		ID: models.NewID(), UserID: userID, AccountID: accountID, Description: "coffee",
		Amount: decimal.NewFromInt(amount), Date: date, Category: models.DefaultCategory,
	}
	require.NoError(s.T(), s.st.CreateExpense(s.ctx, e))
	return e
}

func (s *Suite) task(userID, title string) *models.Task {
	t := &models.Task{ID: models.NewID(), UserID: userID, Title: title, Priority: models.PriorityMedium}
	require.NoError(s.T(), s.st.CreateTask(s.ctx, t))
	return t
}

func (s *Suite) TestDuplicateEmail() {
	s.user("dup@example.com")
	err := s.st.CreateUser(s.ctx, &models.User{ID: models.NewID(), Name: "Other", Email: "dup@example.com", PasswordHash: []byte("x")})
	s.ErrorIs(err, store.ErrDuplicate)
}

func (s *Suite) TestUserLookupAndPasswordChange() {
	u := s.user("find@example.com")
	got, err := s.st.UserByEmail(s.ctx, "find@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)

	s.Require().NoError(s.st.SetPasswordHash(s.ctx, u.ID, []byte("new")))
	got, err = s.st.UserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal([]byte("new"), got.PasswordHash)

	_, err = s.st.UserByEmail(s.ctx, "missing@example.com")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *Suite) TestTaskOwnershipScoping() {
	alice := s.user("alice@example.com")
	bob := s.user("bob@example.com")
	t := s.task(alice.ID, "pay rent")

	_, err := s.st.GetTask(s.ctx, bob.ID, t.ID)
	s.ErrorIs(err, store.ErrNotFound)

	title := "stolen"
	_, err = s.st.UpdateTask(s.ctx, bob.ID, t.ID, models.TaskUpdate{Title: &title})
	s.ErrorIs(err, store.ErrNotFound)

	_, err = s.st.ToggleTask(s.ctx, bob.ID, t.ID)
	s.ErrorIs(err, store.ErrNotFound)

	s.ErrorIs(s.st.DeleteTask(s.ctx, bob.ID, t.ID), store.ErrNotFound)

	got, err := s.st.GetTask(s.ctx, alice.ID, t.ID)
	s.Require().NoError(err)
	s.Equal("pay rent", got.Title)
	s.False(got.Completed)
}

func (s *Suite) TestTaskListNewestFirst() {
	u := s.user("list@example.com")
	first := s.task(u.ID, "first")
	time.Sleep(5 * time.Millisecond)
	second := s.task(u.ID, "second")

	tasks, err := s.st.ListTasks(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal(second.ID, tasks[0].ID)
	s.Equal(first.ID, tasks[1].ID)

	empty, err := s.st.ListTasks(s.ctx, models.NewID())
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)
}

func (s *Suite) TestTaskPartialUpdateAndToggle() {
	u := s.user("upd@example.com")
	t := s.task(u.ID, "original")

	prio := models.PriorityHigh
	got, err := s.st.UpdateTask(s.ctx, u.ID, t.ID, models.TaskUpdate{Priority: &prio})
	s.Require().NoError(err)
	s.Equal("original", got.Title)
	s.Equal(models.PriorityHigh, got.Priority)

	got, err = s.st.ToggleTask(s.ctx, u.ID, t.ID)
	s.Require().NoError(err)
	s.True(got.Completed)
	got, err = s.st.ToggleTask(s.ctx, u.ID, t.ID)
	s.Require().NoError(err)
	s.False(got.Completed)

	_, err = s.st.UpdateTask(s.ctx, u.ID, models.NewID(), models.TaskUpdate{Priority: &prio})
	s.ErrorIs(err, store.ErrNotFound)
	_, err = s.st.UpdateTask(s.ctx, u.ID, models.NewID(), models.TaskUpdate{})
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *Suite) TestAccountUpdateKeepsUnsetFields() {
	u := s.user("acct@example.com")
	a := s.account(u.ID, 500)

	name := "Savings"
	got, err := s.st.UpdateAccount(s.ctx, u.ID, a.ID, models.AccountUpdate{Name: &name})
	s.Require().NoError(err)
	s.Equal("Savings", got.Name)
	s.True(decimal.NewFromInt(500).Equal(got.InitialBalance), "balance was %s", got.InitialBalance)
	s.Equal("USD", got.Currency)
}

func (s *Suite) TestExpenseFiltersAndOrdering() {
	u := s.user("exp@example.com")
	a1 := s.account(u.ID, 0)
	a2 := s.account(u.ID, 0)
	now := time.Now().UTC()
	old := s.expense(u.ID, a1.ID, 10, now.AddDate(0, -2, 0))
	recent := s.expense(u.ID, a1.ID, 20, now.Add(-time.Hour))
	other := s.expense(u.ID, a2.ID, 30, now.Add(-2*time.Hour))

	all, err := s.st.ListExpenses(s.ctx, store.ExpenseFilter{UserID: u.ID})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{recent.ID, other.ID, old.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	byAccount, err := s.st.ListExpenses(s.ctx, store.ExpenseFilter{UserID: u.ID, AccountID: a1.ID})
	s.Require().NoError(err)
	s.Len(byAccount, 2)

	since := now.AddDate(0, 0, -7)
	recentOnly, err := s.st.ListExpenses(s.ctx, store.ExpenseFilter{UserID: u.ID, Since: &since})
	s.Require().NoError(err)
	s.Len(recentOnly, 2)

	foreign, err := s.st.ListExpenses(s.ctx, store.ExpenseFilter{UserID: models.NewID(), AccountID: a1.ID})
	s.Require().NoError(err)
	s.Empty(foreign)
}

func (s *Suite) TestExpenseReceiptNeverLoadedByReads() {
	u := s.user("rcpt@example.com")
	a := s.account(u.ID, 0)
	e := &models.Expense{
		ID: models.NewID(), UserID: u.ID, AccountID: a.ID, Description: "lunch",
		Amount: decimal.NewFromInt(12), Date: time.Now().UTC(), Category: models.DefaultCategory,
		ReceiptData: []byte("\x89PNG fake"), ReceiptContentType: "image/png",
	}
	s.Require().NoError(s.st.CreateExpense(s.ctx, e))
	s.True(e.HasReceipt)

	got, err := s.st.GetExpense(s.ctx, u.ID, e.ID)
	s.Require().NoError(err)
	s.Empty(got.ReceiptData)
	s.True(got.HasReceipt)

	list, err := s.st.ListExpenses(s.ctx, store.ExpenseFilter{UserID: u.ID})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Empty(list[0].ReceiptData)
	s.True(list[0].HasReceipt)

	r, err := s.st.GetReceipt(s.ctx, u.ID, e.ID)
	s.Require().NoError(err)
	s.Equal("image/png", r.ContentType)
	s.Equal([]byte("\x89PNG fake"), r.Data)

	_, err = s.st.GetReceipt(s.ctx, models.NewID(), e.ID)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *Suite) TestExpenseUpdateReplacesReceipt() {
	u := s.user("swap@example.com")
	a := s.account(u.ID, 0)
	e := s.expense(u.ID, a.ID, 5, time.Now().UTC())
	s.False(e.HasReceipt)

	amount := decimal.RequireFromString("7.25")
	got, err := s.st.UpdateExpense(s.ctx, u.ID, e.ID, models.ExpenseUpdate{
		Amount:  &amount,
		Receipt: &models.Receipt{Data: []byte("%PDF-1.4"), ContentType: "application/pdf"},
	})
	s.Require().NoError(err)
	s.True(got.HasReceipt)
	s.Empty(got.ReceiptData)
	s.True(amount.Equal(got.Amount), "amount was %s", got.Amount)
	s.Equal("coffee", got.Description)
}

func (s *Suite) TestBulkDeletes() {
	u := s.user("bulk@example.com")
	keep := s.user("keep@example.com")
	a := s.account(u.ID, 0)
	b := s.account(u.ID, 0)
	k := s.account(keep.ID, 0)
	s.expense(u.ID, a.ID, 1, time.Now().UTC())
	s.expense(u.ID, a.ID, 2, time.Now().UTC())
	s.expense(u.ID, b.ID, 3, time.Now().UTC())
	s.expense(keep.ID, k.ID, 4, time.Now().UTC())
	s.task(u.ID, "one")

	n, err := s.st.DeleteExpensesByAccount(s.ctx, a.ID)
	s.Require().NoError(err)
	s.EqualValues(2, n)

	n, err = s.st.DeleteExpensesByUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	n, err = s.st.DeleteAccountsByUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.EqualValues(2, n)

	n, err = s.st.DeleteTasksByUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	s.Require().NoError(s.st.DeleteUser(s.ctx, u.ID))
	s.ErrorIs(s.st.DeleteUser(s.ctx, u.ID), store.ErrNotFound)

	left, err := s.st.ListExpenses(s.ctx, store.ExpenseFilter{UserID: keep.ID})
	s.Require().NoError(err)
	s.Len(left, 1)
}

func (s *Suite) TestWithinTxCommitsAndPropagatesErrors() {
	u := s.user("tx@example.com")
	a := s.account(u.ID, 0)

	boom := errors.New("boom")
	err := s.st.WithinTx(s.ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.DeleteAccount(ctx, u.ID, a.ID); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	err = s.st.WithinTx(s.ctx, func(ctx context.Context, tx store.Store) error {
		return tx.DeleteAccount(ctx, u.ID, a.ID)
	})
	// Backends without transactions already removed the account above.
	if err != nil {
		s.ErrorIs(err, store.ErrNotFound)
	}
	_, err = s.st.GetAccount(s.ctx, u.ID, a.ID)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *Suite) TestMalformedIDsAreNotFound() {
	u := s.user("bad@example.com")
	_, err := s.st.GetTask(s.ctx, u.ID, strings.Repeat("z", 24))
	s.ErrorIs(err, store.ErrNotFound)
}
