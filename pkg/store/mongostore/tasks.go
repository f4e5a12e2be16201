package mongostore

import (
	"context"
	"time"

	"finboard/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (s *Store) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	uid, err := oid(userID)
	if err != nil {
		return []models.Task{}, nil
	}
	cur, err := s.coll(tasksColl).Find(ctx, bson.M{"userId": uid}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, translate(err)
	}
	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}
	tasks := make([]models.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.model())
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, userID, id string) (*models.Task, error) {
	filter, err := owned(userID, id)
	if err != nil {
		return nil, err
	}
	var doc taskDoc
	if err := s.coll(tasksColl).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	t := doc.model()
	return &t, nil
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	doc, err := newTaskDoc(t)
	if err != nil {
		return err
	}
	_, err = s.coll(tasksColl).InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) UpdateTask(ctx context.Context, userID, id string, upd models.TaskUpdate) (*models.Task, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Completed != nil {
		set["completed"] = *upd.Completed
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.DueDate != nil {
		set["dueDate"] = msTime(*upd.DueDate)
	}
	if upd.AccountID != nil {
		aid, err := oid(*upd.AccountID)
		if err != nil {
			return nil, err
		}
		set["accountId"] = aid
	}
	return s.modifyTask(ctx, userID, id, bson.M{"$set": set})
}

// ToggleTask flips completed with a pipeline update so the read and the
// write happen in one server-side step.
func (s *Store) ToggleTask(ctx context.Context, userID, id string) (*models.Task, error) {
	pipeline := bson.A{bson.M{"$set": bson.M{
		"completed": bson.M{"$not": bson.A{"$completed"}},
		"updatedAt": time.Now().UTC(),
	}}}
	return s.modifyTask(ctx, userID, id, pipeline)
}

func (s *Store) modifyTask(ctx context.Context, userID, id string, update interface{}) (*models.Task, error) {
	filter, err := owned(userID, id)
	if err != nil {
		return nil, err
	}
	var doc taskDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.coll(tasksColl).FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	t := doc.model()
	return &t, nil
}

func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	filter, err := owned(userID, id)
	if err != nil {
		return err
	}
	return translate(s.coll(tasksColl).FindOneAndDelete(ctx, filter).Err())
}

func (s *Store) DeleteTasksByUser(ctx context.Context, userID string) (int64, error) {
	uid, err := oid(userID)
	if err != nil {
		return 0, nil
	}
	res, err := s.coll(tasksColl).DeleteMany(ctx, bson.M{"userId": uid})
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}
