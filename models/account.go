package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types.
const (
	AccountChecking = "checking"
	AccountSavings  = "savings"
	AccountCash     = "cash"
	AccountCredit   = "credit"
	AccountOther    = "other"
)

// AccountTypes lists the accepted account types.
var AccountTypes = []string{AccountChecking, AccountSavings, AccountCash, AccountCredit, AccountOther}

// Currencies lists the accepted ISO currency codes.
var Currencies = []string{"USD", "COP", "EUR"}

// DefaultAccountColor is used when an account is created without a color.
const DefaultAccountColor = "#7C3AED"

// Account is a money container. Its current balance is never stored; see package balance.
type Account struct {
	ID             string          `gorm:"primaryKey;size:24" json:"_id"`
	CreatedAt      time.Time       `gorm:"index:idx_accounts_user_created,priority:2" json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	UserID         string          `gorm:"size:24;not null;index:idx_accounts_user_created,priority:1" json:"userId"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	InitialBalance decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"initialBalance"`
	Type           string          `gorm:"size:16;not null;default:checking" json:"type"`
	Currency       string          `gorm:"size:3;not null;default:USD" json:"currency"`
	Color          string          `gorm:"size:32" json:"color"`
}

// AccountUpdate carries the fields of a partial account update; nil means unchanged.
type AccountUpdate struct {
	Name           *string
	InitialBalance *decimal.Decimal
	Type           *string
	Currency       *string
	Color          *string
}
