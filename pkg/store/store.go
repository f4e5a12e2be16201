// Package store declares the persistence contract shared by the SQL and
// document backends. Every task, account and expense operation takes the
// caller's user id and never touches records owned by someone else.
package store

import (
	"context"
	"errors"
	"time"

	"finboard/models"
)

var (
	// ErrNotFound means no record matched the id and owner filter.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means a unique value (user email) is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// ExpenseFilter selects expenses. UserID is required.
type ExpenseFilter struct {
	UserID    string
	AccountID string
	Since     *time.Time
	Until     *time.Time
}

// Users persists user records.
type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	SetPasswordHash(ctx context.Context, id string, hash []byte) error
	DeleteUser(ctx context.Context, id string) error
}

// Tasks persists tasks.
type Tasks interface {
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)
	GetTask(ctx context.Context, userID, id string) (*models.Task, error)
	CreateTask(ctx context.Context, t *models.Task) error
	UpdateTask(ctx context.Context, userID, id string, upd models.TaskUpdate) (*models.Task, error)
	ToggleTask(ctx context.Context, userID, id string) (*models.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
	DeleteTasksByUser(ctx context.Context, userID string) (int64, error)
}

// Accounts persists accounts.
type Accounts interface {
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccount(ctx context.Context, userID, id string) (*models.Account, error)
	CreateAccount(ctx context.Context, a *models.Account) error
	UpdateAccount(ctx context.Context, userID, id string, upd models.AccountUpdate) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, id string) error
	DeleteAccountsByUser(ctx context.Context, userID string) (int64, error)
}

// Expenses persists expenses. Reads never load receipt bytes except GetReceipt.
type Expenses interface {
	ListExpenses(ctx context.Context, f ExpenseFilter) ([]models.Expense, error)
	GetExpense(ctx context.Context, userID, id string) (*models.Expense, error)
	GetReceipt(ctx context.Context, userID, id string) (*models.Receipt, error)
	CreateExpense(ctx context.Context, e *models.Expense) error
	UpdateExpense(ctx context.Context, userID, id string, upd models.ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(ctx context.Context, userID, id string) error
	DeleteExpensesByAccount(ctx context.Context, accountID string) (int64, error)
	DeleteExpensesByUser(ctx context.Context, userID string) (int64, error)
}

// Store is a complete backend.
type Store interface {
	Users
	Tasks
	Accounts
	Expenses

	// WithinTx runs fn against a transactional view of the store when the
	// backend supports transactions, or against the store itself otherwise.
	// An error from fn rolls the transaction back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
	Close() error
}
