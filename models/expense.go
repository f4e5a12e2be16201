package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCategory is assigned to expenses created without a category.
const DefaultCategory = "General"

// Expense is money spent from an account. UserID duplicates the account's
// owner so ownership can be checked without a join.
type Expense struct {
	ID                 string          `gorm:"primaryKey;size:24" json:"_id"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	UserID             string          `gorm:"size:24;not null;index:idx_expenses_user_date,priority:1" json:"userId"`
	AccountID          string          `gorm:"size:24;not null;index:idx_expenses_account_date,priority:1" json:"accountId"`
	Description        string          `gorm:"size:200;not null" json:"description"`
	Amount             decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Date               time.Time       `gorm:"not null;index:idx_expenses_user_date,priority:2;index:idx_expenses_account_date,priority:2" json:"date"`
	Category           string          `gorm:"size:50;not null;default:General" json:"category"`
	ReceiptData        []byte          `json:"-"`
	ReceiptContentType string          `gorm:"size:64" json:"receiptContentType,omitempty"`

	HasReceipt bool `gorm:"-" json:"hasReceipt"`
}

// AfterFind keeps HasReceipt in sync for rows loaded without the blob.
func (e *Expense) AfterFind(tx *gorm.DB) error {
	e.HasReceipt = e.ReceiptContentType != ""
	return nil
}

// Receipt is a stored attachment.
type Receipt struct {
	Data        []byte
	ContentType string
}

// ExpenseUpdate carries the fields of a partial expense update; nil means unchanged.
type ExpenseUpdate struct {
	Description *string
	Amount      *decimal.Decimal
	Date        *time.Time
	Category    *string
	AccountID   *string
	Receipt     *Receipt
}
