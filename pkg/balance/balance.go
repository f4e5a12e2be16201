// Package balance derives account balances and per-user statistics from raw
// expense rows. Nothing here is cached or persisted.
package balance

import (
	"context"
	"fmt"
	"time"

	"finboard/models"
	"finboard/pkg/store"

	"github.com/shopspring/decimal"
)

// Totals are the derived figures of one account.
type Totals struct {
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	TotalExpenses  decimal.Decimal `json:"totalExpenses"`
}

// Summarize returns initial minus the sum of amounts, and the sum itself.
func Summarize(initial decimal.Decimal, expenses []models.Expense) Totals {
	spent := decimal.Zero
	for _, e := range expenses {
		spent = spent.Add(e.Amount)
	}
	return Totals{CurrentBalance: initial.Sub(spent), TotalExpenses: spent}
}

// AccountSummary is an account with its derived totals.
type AccountSummary struct {
	models.Account
	Totals
}

// AccountDetail adds the account's expenses, newest first.
type AccountDetail struct {
	AccountSummary
	Expenses []models.Expense `json:"expenses"`
}

// Stats aggregates all accounts of one user.
type Stats struct {
	TotalBalance           decimal.Decimal `json:"totalBalance"`
	TotalAccounts          int             `json:"totalAccounts"`
	TotalExpensesThisMonth decimal.Decimal `json:"totalExpensesThisMonth"`
}

// MonthStart is midnight on the first day of t's month, in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Reader is the slice of the store the calculator needs.
type Reader interface {
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccount(ctx context.Context, userID, id string) (*models.Account, error)
	ListExpenses(ctx context.Context, f store.ExpenseFilter) ([]models.Expense, error)
}

// Calculator computes balances on demand.
type Calculator struct {
	st  Reader
	now func() time.Time
}

func NewCalculator(st Reader) *Calculator {
	return &Calculator{st: st, now: time.Now}
}

// Accounts lists the user's accounts with totals.
func (c *Calculator) Accounts(ctx context.Context, userID string) ([]AccountSummary, error) {
	accounts, err := c.st.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	expenses, err := c.st.ListExpenses(ctx, store.ExpenseFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	byAccount := make(map[string][]models.Expense, len(accounts))
	for _, e := range expenses {
		byAccount[e.AccountID] = append(byAccount[e.AccountID], e)
	}
	out := make([]AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountSummary{Account: a, Totals: Summarize(a.InitialBalance, byAccount[a.ID])})
	}
	return out, nil
}

// Account returns one account with totals and expenses. A foreign or
// missing account is store.ErrNotFound.
func (c *Calculator) Account(ctx context.Context, userID, id string) (*AccountDetail, error) {
	a, err := c.st.GetAccount(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	expenses, err := c.st.ListExpenses(ctx, store.ExpenseFilter{UserID: userID, AccountID: id})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return &AccountDetail{
		AccountSummary: AccountSummary{Account: *a, Totals: Summarize(a.InitialBalance, expenses)},
		Expenses:       expenses,
	}, nil
}

// Stats sums balances over every account and this month's spending.
func (c *Calculator) Stats(ctx context.Context, userID string) (Stats, error) {
	summaries, err := c.Accounts(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalBalance: decimal.Zero, TotalAccounts: len(summaries), TotalExpensesThisMonth: decimal.Zero}
	for _, s := range summaries {
		st.TotalBalance = st.TotalBalance.Add(s.CurrentBalance)
	}
	since := MonthStart(c.now())
	month, err := c.st.ListExpenses(ctx, store.ExpenseFilter{UserID: userID, Since: &since})
	if err != nil {
		return Stats{}, fmt.Errorf("list month expenses: %w", err)
	}
	for _, e := range month {
		st.TotalExpensesThisMonth = st.TotalExpensesThisMonth.Add(e.Amount)
	}
	return st, nil
}
