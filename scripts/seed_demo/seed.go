package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"finboard/models"
	"finboard/pkg/store"

	"github.com/shopspring/decimal"
)

// demo data catalogue; amounts are in cents
var (
	demoAccounts = []struct {
		name, kind, color string
		initial           int64
	}{
		{"Everyday", models.AccountChecking, "#2563EB", 250000},
		{"Savings", models.AccountSavings, "#16A34A", 1000000},
		{"Wallet", models.AccountCash, models.DefaultAccountColor, 20000},
	}
	demoExpenses = []struct {
		desc, category string
		lo, hi         int64
	}{
		{"Groceries", "Food", 2500, 12000},
		{"Coffee", "Food", 300, 700},
		{"Bus pass", "Transport", 3000, 6000},
		{"Electricity", "Utilities", 4000, 9000},
		{"Cinema", "Leisure", 1200, 3000},
		{"Pharmacy", "Health", 800, 4000},
	}
	demoTasks = []struct {
		title, priority string
		dueIn           time.Duration
	}{
		{"Pay rent", models.PriorityHigh, 72 * time.Hour},
		{"Review subscriptions", models.PriorityMedium, 14 * 24 * time.Hour},
		{"File receipts", models.PriorityLow, 0},
	}
)

type seeder struct {
	st     store.Store
	out    io.Writer
	rng    *rand.Rand
	now    time.Time
	dryRun bool
}

type seedResult struct {
	accounts, expenses, tasks int
}

func (s *seeder) cents(lo, hi int64) decimal.Decimal {
	return decimal.New(lo+s.rng.Int64N(hi-lo+1), -2)
}

// seed fills the user's workspace with accounts, expenses spread over the
// last months and a few tasks.
func (s *seeder) seed(ctx context.Context, userID string, months, perMonth int) (seedResult, error) {
	var res seedResult
	accountIDs := make([]string, 0, len(demoAccounts))
	for _, d := range demoAccounts {
		a := &models.Account{
			ID: models.NewID(), UserID: userID, Name: d.name, Type: d.kind,
			Currency: "USD", Color: d.color, InitialBalance: decimal.New(d.initial, -2),
		}
		if !s.dryRun {
			if err := s.st.CreateAccount(ctx, a); err != nil {
				return res, fmt.Errorf("create account %s: %w", d.name, err)
			}
		}
		accountIDs = append(accountIDs, a.ID)
		res.accounts++
		fmt.Fprintf(s.out, "account %s %s %s\n", a.ID, a.Name, a.InitialBalance.StringFixed(2))
	}

	start := time.Date(s.now.Year(), s.now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	for m := 0; m < months; m++ {
		monthStart := start.AddDate(0, m, 0)
		span := monthStart.AddDate(0, 1, 0).Sub(monthStart)
		for i := 0; i < perMonth; i++ {
			d := demoExpenses[s.rng.IntN(len(demoExpenses))]
			date := monthStart.Add(time.Duration(s.rng.Int64N(int64(span)))).Truncate(time.Minute)
			if date.After(s.now) {
				date = s.now.Truncate(time.Minute)
			}
			e := &models.Expense{
				ID: models.NewID(), UserID: userID, AccountID: accountIDs[s.rng.IntN(len(accountIDs))],
				Description: d.desc, Category: d.category, Amount: s.cents(d.lo, d.hi), Date: date,
			}
			if !s.dryRun {
				if err := s.st.CreateExpense(ctx, e); err != nil {
					return res, fmt.Errorf("create expense: %w", err)
				}
			}
			res.expenses++
		}
	}

	for _, d := range demoTasks {
		t := &models.Task{ID: models.NewID(), UserID: userID, Title: d.title, Priority: d.priority}
		if d.dueIn > 0 {
			due := s.now.Add(d.dueIn)
			t.DueDate = &due
		}
		if !s.dryRun {
			if err := s.st.CreateTask(ctx, t); err != nil {
				return res, fmt.Errorf("create task: %w", err)
			}
		}
		res.tasks++
	}
	fmt.Fprintf(s.out, "seeded accounts=%d expenses=%d tasks=%d dry_run=%t\n", res.accounts, res.expenses, res.tasks, s.dryRun)
	return res, nil
}
