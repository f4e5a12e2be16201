package gormstore

import (
	"context"

	"finboard/models"
	"finboard/pkg/store"

	"gorm.io/gorm"
)

const ownedBy = "id = ? AND user_id = ?"

func (s *Store) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	tasks := []models.Task{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at desc, id desc").Find(&tasks).Error
	return tasks, translate(err)
}

func (s *Store) GetTask(ctx context.Context, userID, id string) (*models.Task, error) {
	var t models.Task
	if err := s.db.WithContext(ctx).Where(ownedBy, id, userID).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

func (s *Store) UpdateTask(ctx context.Context, userID, id string, upd models.TaskUpdate) (*models.Task, error) {
	fields := map[string]interface{}{}
	if upd.Title != nil {
		fields["title"] = *upd.Title
	}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	if upd.Completed != nil {
		fields["completed"] = *upd.Completed
	}
	if upd.Priority != nil {
		fields["priority"] = *upd.Priority
	}
	if upd.DueDate != nil {
		fields["due_date"] = *upd.DueDate
	}
	if upd.AccountID != nil {
		fields["account_id"] = *upd.AccountID
	}
	var out models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateOwned(tx, &models.Task{}, userID, id, fields); err != nil {
			return err
		}
		return tx.Where(ownedBy, id, userID).First(&out).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *Store) ToggleTask(ctx context.Context, userID, id string) (*models.Task, error) {
	var out models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Task{}).Where(ownedBy, id, userID).
			Update("completed", gorm.Expr("NOT completed"))
		if err := affected(res); err != nil {
			return err
		}
		return tx.Where(ownedBy, id, userID).First(&out).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	return affected(s.db.WithContext(ctx).Where(ownedBy, id, userID).Delete(&models.Task{}))
}

func (s *Store) DeleteTasksByUser(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Task{})
	return res.RowsAffected, translate(res.Error)
}

// updateOwned applies fields to the row matching id and owner. An empty
// update still has to prove the row exists.
func updateOwned(tx *gorm.DB, model interface{}, userID, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		var n int64
		if err := tx.Model(model).Where(ownedBy, id, userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	}
	return affected(tx.Model(model).Where(ownedBy, id, userID).Updates(fields))
}
