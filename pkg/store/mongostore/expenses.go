package mongostore

import (
	"context"
	"time"

	"finboard/models"
	"finboard/pkg/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	byDateDesc   = bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	withoutBlobs = bson.M{"receipt.data": 0}
	receiptOnly  = bson.M{"receipt": 1}
)

func (s *Store) ListExpenses(ctx context.Context, f store.ExpenseFilter) ([]models.Expense, error) {
	uid, err := oid(f.UserID)
	if err != nil {
		return []models.Expense{}, nil
	}
	filter := bson.M{"userId": uid}
	if f.AccountID != "" {
		aid, err := oid(f.AccountID)
		if err != nil {
			return []models.Expense{}, nil
		}
		filter["accountId"] = aid
	}
	date := bson.M{}
	if f.Since != nil {
		date["$gte"] = f.Since.UTC()
	}
	if f.Until != nil {
		date["$lt"] = f.Until.UTC()
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	opts := options.Find().SetSort(byDateDesc).SetProjection(withoutBlobs)
	cur, err := s.coll(expensesColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	var docs []expenseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}
	expenses := make([]models.Expense, 0, len(docs))
	for _, d := range docs {
		expenses = append(expenses, d.model())
	}
	return expenses, nil
}

func (s *Store) GetExpense(ctx context.Context, userID, id string) (*models.Expense, error) {
	return s.findExpense(ctx, userID, id, withoutBlobs)
}

func (s *Store) GetReceipt(ctx context.Context, userID, id string) (*models.Receipt, error) {
	e, err := s.findExpense(ctx, userID, id, receiptOnly)
	if err != nil {
		return nil, err
	}
	return &models.Receipt{Data: e.ReceiptData, ContentType: e.ReceiptContentType}, nil
}

func (s *Store) findExpense(ctx context.Context, userID, id string, projection bson.M) (*models.Expense, error) {
	filter, err := owned(userID, id)
	if err != nil {
		return nil, err
	}
	var doc expenseDoc
	opts := options.FindOne().SetProjection(projection)
	if err := s.coll(expensesColl).FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	e := doc.model()
	return &e, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	doc, err := newExpenseDoc(e)
	if err != nil {
		return err
	}
	if _, err := s.coll(expensesColl).InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	e.HasReceipt = doc.Receipt != nil
	return nil
}

func (s *Store) UpdateExpense(ctx context.Context, userID, id string, upd models.ExpenseUpdate) (*models.Expense, error) {
	filter, err := owned(userID, id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Amount != nil {
		amt, err := toDecimal128(*upd.Amount)
		if err != nil {
			return nil, err
		}
		set["amount"] = amt
	}
	if upd.Date != nil {
		set["date"] = msTime(*upd.Date)
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.AccountID != nil {
		aid, err := oid(*upd.AccountID)
		if err != nil {
			return nil, err
		}
		set["accountId"] = aid
	}
	if upd.Receipt != nil {
		set["receipt"] = receiptDoc{Data: upd.Receipt.Data, ContentType: upd.Receipt.ContentType}
	}
	var doc expenseDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(withoutBlobs)
	if err := s.coll(expensesColl).FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	e := doc.model()
	return &e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	filter, err := owned(userID, id)
	if err != nil {
		return err
	}
	opts := options.FindOneAndDelete().SetProjection(bson.M{"_id": 1})
	return translate(s.coll(expensesColl).FindOneAndDelete(ctx, filter, opts).Err())
}

func (s *Store) DeleteExpensesByAccount(ctx context.Context, accountID string) (int64, error) {
	aid, err := oid(accountID)
	if err != nil {
		return 0, nil
	}
	res, err := s.coll(expensesColl).DeleteMany(ctx, bson.M{"accountId": aid})
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteExpensesByUser(ctx context.Context, userID string) (int64, error) {
	uid, err := oid(userID)
	if err != nil {
		return 0, nil
	}
	res, err := s.coll(expensesColl).DeleteMany(ctx, bson.M{"userId": uid})
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}
