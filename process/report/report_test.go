package report

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finboard/models"
	"finboard/pkg/store/gormstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("2025-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, err = MonthRange("12/2025")
	assert.Error(t, err)
}

func TestBuildAndWrite(t *testing.T) {
	st, err := gormstore.OpenSQLite(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()

	u := &models.User{ID: models.NewID(), Name: "Ana", Email: "ana@example.com", PasswordHash: []byte("x")}
	require.NoError(t, st.CreateUser(ctx, u))
	bank := &models.Account{ID: models.NewID(), UserID: u.ID, Name: "Bank", Type: models.AccountChecking, Currency: "USD"}
	cash := &models.Account{ID: models.NewID(), UserID: u.ID, Name: "Cash", Type: models.AccountCash, Currency: "USD"}
	require.NoError(t, st.CreateAccount(ctx, bank))
	require.NoError(t, st.CreateAccount(ctx, cash))

	add := func(acc *models.Account, desc, amount string, date time.Time) {
		e := &models.Expense{ID: models.NewID(), UserID: u.ID, AccountID: acc.ID, Description: desc,
			Amount: decimal.RequireFromString(amount), Date: date, Category: models.DefaultCategory}
		require.NoError(t, st.CreateExpense(ctx, e))
	}
	add(bank, "rent", "1200.50", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	add(bank, "power", "80", time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC))
	add(cash, "coffee", "3.25", time.Date(2025, 8, 31, 23, 59, 0, 0, time.UTC))
	add(cash, "next month", "99", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	add(bank, "last month", "99", time.Date(2025, 7, 31, 23, 0, 0, 0, time.UTC))

	r, err := Build(ctx, st, u.ID, "2025-08")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Count)
	assert.True(t, decimal.RequireFromString("1283.75").Equal(r.Total), r.Total.String())
	require.Len(t, r.Accounts, 2)
	assert.Equal(t, "Bank", r.Accounts[0].Name)
	assert.Equal(t, 2, r.Accounts[0].Count)
	assert.True(t, decimal.RequireFromString("1280.5").Equal(r.Accounts[0].Total))
	assert.Equal(t, "Cash", r.Accounts[1].Name)

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, u.Email, true))
	out := buf.String()
	assert.Contains(t, out, "records=3 total_amount=1283.75")
	assert.Contains(t, out, `account="Bank" currency=USD records=2 total=1280.50`)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[4], "|rent")
	assert.Contains(t, lines[6], "|coffee")
	assert.NotContains(t, out, "next month")
}

func TestBuildEmptyMonth(t *testing.T) {
	st, err := gormstore.OpenSQLite(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { _ = st.Close() })

	r, err := Build(context.Background(), st, models.NewID(), "2025-01")
	require.NoError(t, err)
	assert.Zero(t, r.Count)
	assert.True(t, r.Total.IsZero())
	assert.Empty(t, r.Accounts)

	_, err = Build(context.Background(), st, models.NewID(), "bad")
	assert.Error(t, err)
}
