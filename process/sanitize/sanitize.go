// Package sanitize finds and removes rows left behind by interrupted cascades
// in the SQL backends: accounts, tasks and expenses whose owner is gone, and
// expenses whose account is gone.
package sanitize

import (
	"context"
	"fmt"
	"io"

	"finboard/models"

	"gorm.io/gorm"
)

// Orphans counts rows without a parent.
type Orphans struct {
	Accounts        int64
	Tasks           int64
	Expenses        int64
	AccountExpenses int64
}

// Total is the number of rows a sweep would delete.
func (o Orphans) Total() int64 {
	return o.Accounts + o.Tasks + o.Expenses + o.AccountExpenses
}

func (o Orphans) String() string {
	return fmt.Sprintf("accounts=%d tasks=%d expenses(no user)=%d expenses(no account)=%d",
		o.Accounts, o.Tasks, o.Expenses, o.AccountExpenses)
}

const (
	noUser    = "user_id NOT IN (SELECT id FROM users)"
	noAccount = "account_id NOT IN (SELECT id FROM accounts) AND user_id IN (SELECT id FROM users)"
)

type step struct {
	model any
	where string
	count *int64
}

func steps(o *Orphans) []step {
	return []step{
		{&models.Expense{}, noUser, &o.Expenses},
		{&models.Task{}, noUser, &o.Tasks},
		{&models.Account{}, noUser, &o.Accounts},
		{&models.Expense{}, noAccount, &o.AccountExpenses},
	}
}

// Scan counts orphaned rows without changing anything.
func Scan(ctx context.Context, db *gorm.DB) (Orphans, error) {
	var o Orphans
	for _, s := range steps(&o) {
		if err := db.WithContext(ctx).Model(s.model).Where(s.where).Count(s.count).Error; err != nil {
			return o, fmt.Errorf("count orphans: %w", err)
		}
	}
	return o, nil
}

// Sweep deletes orphaned rows in one transaction and reports what it removed.
func Sweep(ctx context.Context, db *gorm.DB) (Orphans, error) {
	var o Orphans
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range steps(&o) {
			res := tx.Where(s.where).Delete(s.model)
			if res.Error != nil {
				return fmt.Errorf("delete orphans: %w", res.Error)
			}
			*s.count = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return Orphans{}, err
	}
	return o, nil
}

// Run scans and, when apply is set, sweeps. Progress goes to w.
func Run(ctx context.Context, db *gorm.DB, apply bool, w io.Writer) (Orphans, error) {
	o, err := Scan(ctx, db)
	if err != nil {
		return o, err
	}
	fmt.Fprintf(w, "orphaned rows: %s\n", o)
	if o.Total() == 0 {
		fmt.Fprintln(w, "nothing to do")
		return o, nil
	}
	if !apply {
		fmt.Fprintln(w, "dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return o, nil
	}
	o, err = Sweep(ctx, db)
	if err != nil {
		return o, err
	}
	fmt.Fprintf(w, "deleted: %s\n", o)
	return o, nil
}
