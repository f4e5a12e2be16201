package mongostore

import (
	"context"
	"time"

	"finboard/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	uid, err := oid(userID)
	if err != nil {
		return []models.Account{}, nil
	}
	cur, err := s.coll(accountsColl).Find(ctx, bson.M{"userId": uid}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, translate(err)
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}
	accounts := make([]models.Account, 0, len(docs))
	for _, d := range docs {
		accounts = append(accounts, d.model())
	}
	return accounts, nil
}

func (s *Store) GetAccount(ctx context.Context, userID, id string) (*models.Account, error) {
	filter, err := owned(userID, id)
	if err != nil {
		return nil, err
	}
	var doc accountDoc
	if err := s.coll(accountsColl).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	a := doc.model()
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	doc, err := newAccountDoc(a)
	if err != nil {
		return err
	}
	_, err = s.coll(accountsColl).InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) UpdateAccount(ctx context.Context, userID, id string, upd models.AccountUpdate) (*models.Account, error) {
	filter, err := owned(userID, id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.InitialBalance != nil {
		bal, err := toDecimal128(*upd.InitialBalance)
		if err != nil {
			return nil, err
		}
		set["initialBalance"] = bal
	}
	if upd.Type != nil {
		set["type"] = *upd.Type
	}
	if upd.Currency != nil {
		set["currency"] = *upd.Currency
	}
	if upd.Color != nil {
		set["color"] = *upd.Color
	}
	var doc accountDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.coll(accountsColl).FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	a := doc.model()
	return &a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	filter, err := owned(userID, id)
	if err != nil {
		return err
	}
	return translate(s.coll(accountsColl).FindOneAndDelete(ctx, filter).Err())
}

func (s *Store) DeleteAccountsByUser(ctx context.Context, userID string) (int64, error) {
	uid, err := oid(userID)
	if err != nil {
		return 0, nil
	}
	res, err := s.coll(accountsColl).DeleteMany(ctx, bson.M{"userId": uid})
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}
