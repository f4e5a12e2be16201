// Package report builds month-bounded expense reports for a single user.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"finboard/models"
	"finboard/pkg/store"

	"github.com/shopspring/decimal"
)

// Source is the slice of the store a report reads.
type Source interface {
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	ListExpenses(ctx context.Context, f store.ExpenseFilter) ([]models.Expense, error)
}

// AccountLine sums one account's expenses within the month.
type AccountLine struct {
	AccountID string
	Name      string
	Currency  string
	Count     int
	Total     decimal.Decimal
}

// Report is a month of expenses. Start and End are UTC, End exclusive.
type Report struct {
	Month    string
	Start    time.Time
	End      time.Time
	Count    int
	Total    decimal.Decimal
	Accounts []AccountLine
	Expenses []models.Expense
}

// MonthRange parses YYYY-MM and returns its UTC bounds.
func MonthRange(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", month)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// Build collects the user's expenses for month and groups them by account.
// Expenses whose account no longer exists are grouped under their raw id.
func Build(ctx context.Context, src Source, userID, month string) (*Report, error) {
	start, end, err := MonthRange(month)
	if err != nil {
		return nil, err
	}
	accounts, err := src.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	expenses, err := src.ListExpenses(ctx, store.ExpenseFilter{UserID: userID, Since: &start, Until: &end})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	byID := make(map[string]*AccountLine, len(accounts))
	lines := make([]*AccountLine, 0, len(accounts))
	for _, a := range accounts {
		l := &AccountLine{AccountID: a.ID, Name: a.Name, Currency: a.Currency, Total: decimal.Zero}
		byID[a.ID] = l
		lines = append(lines, l)
	}

	r := &Report{Month: month, Start: start, End: end, Total: decimal.Zero, Expenses: expenses}
	for _, e := range expenses {
		r.Count++
		r.Total = r.Total.Add(e.Amount)
		l, ok := byID[e.AccountID]
		if !ok {
			l = &AccountLine{AccountID: e.AccountID, Name: e.AccountID, Total: decimal.Zero}
			byID[e.AccountID] = l
			lines = append(lines, l)
		}
		l.Count++
		l.Total = l.Total.Add(e.Amount)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Total.GreaterThan(lines[j].Total) })
	for _, l := range lines {
		r.Accounts = append(r.Accounts, *l)
	}
	return r, nil
}

// Write prints r. With list set each expense follows on its own line,
// oldest first.
func (r *Report) Write(w io.Writer, who string, list bool) error {
	if _, err := fmt.Fprintf(w, "Report for user=%s month=%s (UTC):\n", who, r.Month); err != nil {
		return err
	}
	fmt.Fprintf(w, "  records=%d total_amount=%s\n", r.Count, r.Total.StringFixed(2))
	for _, l := range r.Accounts {
		fmt.Fprintf(w, "  account=%q currency=%s records=%d total=%s\n", l.Name, l.Currency, l.Count, l.Total.StringFixed(2))
	}
	if !list {
		return nil
	}
	for i := len(r.Expenses) - 1; i >= 0; i-- {
		e := r.Expenses[i]
		fmt.Fprintf(w, "%s|%s|%s|%s|%s\n", e.ID, e.Date.Format(time.RFC3339), e.Category, e.Amount.StringFixed(2), e.Description)
	}
	return nil
}
