// Package mongostore implements store.Store on MongoDB, one collection per entity.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finboard/pkg/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersColl    = "users"
	tasksColl    = "tasks"
	accountsColl = "accounts"
	expensesColl = "expenses"
)

// Options configures Connect.
type Options struct {
	URI      string
	Database string
	// Transactions wraps cascades in multi-document transactions. Needs a replica set.
	Transactions bool
}

// Store is a MongoDB-backed store.Store.
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

var _ store.Store = (*Store)(nil)

// Connect dials MongoDB, pings it and returns a Store.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(opts.Database), transactions: opts.Transactions}, nil
}

// EnsureIndexes creates the lookup indexes and the unique email index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersColl: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		tasksColl:    {{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		accountsColl: {{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		expensesColl: {
			{Keys: bson.D{{Key: "accountId", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
		},
	}
	for coll, models := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if !s.transactions {
		return fn(ctx, s)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the database. Used by integration tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// oid parses a hex id. Malformed ids cannot match anything.
func oid(id string) (primitive.ObjectID, error) {
	o, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return o, nil
}

// owned builds the {_id, userId} filter every scoped operation uses.
func owned(userID, id string) (bson.M, error) {
	oidv, err := oid(id)
	if err != nil {
		return nil, err
	}
	uid, err := oid(userID)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oidv, "userId": uid}, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}
