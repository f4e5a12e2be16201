package gormstore

import (
	"context"

	"finboard/models"
	"finboard/pkg/store"

	"gorm.io/gorm"
)

const expenseOrder = "date desc, created_at desc, id desc"

func (s *Store) ListExpenses(ctx context.Context, f store.ExpenseFilter) ([]models.Expense, error) {
	q := s.db.WithContext(ctx).Omit("receipt_data").Where("user_id = ?", f.UserID)
	if f.AccountID != "" {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.Since != nil {
		q = q.Where("date >= ?", f.Since.UTC())
	}
	if f.Until != nil {
		q = q.Where("date < ?", f.Until.UTC())
	}
	expenses := []models.Expense{}
	err := q.Order(expenseOrder).Find(&expenses).Error
	return expenses, translate(err)
}

func (s *Store) GetExpense(ctx context.Context, userID, id string) (*models.Expense, error) {
	var e models.Expense
	if err := s.db.WithContext(ctx).Omit("receipt_data").Where(ownedBy, id, userID).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *Store) GetReceipt(ctx context.Context, userID, id string) (*models.Receipt, error) {
	var e models.Expense
	err := s.db.WithContext(ctx).Select("id", "receipt_data", "receipt_content_type").
		Where(ownedBy, id, userID).First(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	return &models.Receipt{Data: e.ReceiptData, ContentType: e.ReceiptContentType}, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	e.HasReceipt = len(e.ReceiptData) > 0
	return translate(s.db.WithContext(ctx).Create(e).Error)
}

func (s *Store) UpdateExpense(ctx context.Context, userID, id string, upd models.ExpenseUpdate) (*models.Expense, error) {
	fields := map[string]interface{}{}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	if upd.Amount != nil {
		fields["amount"] = *upd.Amount
	}
	if upd.Date != nil {
		fields["date"] = *upd.Date
	}
	if upd.Category != nil {
		fields["category"] = *upd.Category
	}
	if upd.AccountID != nil {
		fields["account_id"] = *upd.AccountID
	}
	if upd.Receipt != nil {
		fields["receipt_data"] = upd.Receipt.Data
		fields["receipt_content_type"] = upd.Receipt.ContentType
	}
	var out models.Expense
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateOwned(tx, &models.Expense{}, userID, id, fields); err != nil {
			return err
		}
		return tx.Omit("receipt_data").Where(ownedBy, id, userID).First(&out).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	return affected(s.db.WithContext(ctx).Where(ownedBy, id, userID).Delete(&models.Expense{}))
}

func (s *Store) DeleteExpensesByAccount(ctx context.Context, accountID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&models.Expense{})
	return res.RowsAffected, translate(res.Error)
}

func (s *Store) DeleteExpensesByUser(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Expense{})
	return res.RowsAffected, translate(res.Error)
}
