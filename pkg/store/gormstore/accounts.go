package gormstore

import (
	"context"

	"finboard/models"

	"gorm.io/gorm"
)

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	accounts := []models.Account{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at desc, id desc").Find(&accounts).Error
	return accounts, translate(err)
}

func (s *Store) GetAccount(ctx context.Context, userID, id string) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).Where(ownedBy, id, userID).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

func (s *Store) UpdateAccount(ctx context.Context, userID, id string, upd models.AccountUpdate) (*models.Account, error) {
	fields := map[string]interface{}{}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.InitialBalance != nil {
		fields["initial_balance"] = *upd.InitialBalance
	}
	if upd.Type != nil {
		fields["type"] = *upd.Type
	}
	if upd.Currency != nil {
		fields["currency"] = *upd.Currency
	}
	if upd.Color != nil {
		fields["color"] = *upd.Color
	}
	var out models.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateOwned(tx, &models.Account{}, userID, id, fields); err != nil {
			return err
		}
		return tx.Where(ownedBy, id, userID).First(&out).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	return affected(s.db.WithContext(ctx).Where(ownedBy, id, userID).Delete(&models.Account{}))
}

func (s *Store) DeleteAccountsByUser(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Account{})
	return res.RowsAffected, translate(res.Error)
}
