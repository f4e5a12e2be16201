package mongostore

import (
	"context"
	"time"

	"finboard/models"
	"finboard/pkg/store"

	"go.mongodb.org/mongo-driver/bson"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	doc, err := newUserDoc(u)
	if err != nil {
		return err
	}
	_, err = s.coll(usersColl).InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": o})
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.coll(usersColl).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (s *Store) SetPasswordHash(ctx context.Context, id string, hash []byte) error {
	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.coll(usersColl).UpdateOne(ctx, bson.M{"_id": o},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.coll(usersColl).DeleteOne(ctx, bson.M{"_id": o})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
