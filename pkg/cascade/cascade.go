// Package cascade removes records together with everything that depends on them.
package cascade

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/pkg/store"
)

// Coordinator runs the account and user deletion cascades.
type Coordinator struct {
	st     store.Store
	logger *slog.Logger
}

func NewCoordinator(st store.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{st: st, logger: logger}
}

// DeleteAccount removes the caller's account and then its expenses. If the
// account is missing or foreign nothing is deleted and store.ErrNotFound is returned.
func (c *Coordinator) DeleteAccount(ctx context.Context, userID, accountID string) error {
	var removed int64
	err := c.st.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.DeleteAccount(ctx, userID, accountID); err != nil {
			return err
		}
		n, err := tx.DeleteExpensesByAccount(ctx, accountID)
		if err != nil {
			return fmt.Errorf("delete expenses of account %s: %w", accountID, err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "account deleted", "account_id", accountID, "user_id", userID, "expenses_deleted", removed)
	return nil
}

// DeleteUser removes expenses, accounts, tasks and finally the user, in that order.
func (c *Coordinator) DeleteUser(ctx context.Context, userID string) error {
	var expenses, accounts, tasks int64
	err := c.st.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		if expenses, err = tx.DeleteExpensesByUser(ctx, userID); err != nil {
			return fmt.Errorf("delete expenses: %w", err)
		}
		if accounts, err = tx.DeleteAccountsByUser(ctx, userID); err != nil {
			return fmt.Errorf("delete accounts: %w", err)
		}
		if tasks, err = tx.DeleteTasksByUser(ctx, userID); err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		return tx.DeleteUser(ctx, userID)
	})
	if err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "user deleted", "user_id", userID,
		"expenses_deleted", expenses, "accounts_deleted", accounts, "tasks_deleted", tasks)
	return nil
}
