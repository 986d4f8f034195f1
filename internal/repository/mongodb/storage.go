// Package mongodb keeps pacta records in MongoDB collections.
// Atomic writes (InTx, ReminderBatch) use multi-document transactions, so the
// server has to run as a replica set.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nkiryanov/pacta/internal/repository"
)

const (
	usersCollection         = "users"
	debtsCollection         = "debts"
	notificationsCollection = "notifications"
)

type Storage struct {
	db *mongo.Database

	// Set when storage is bound to transaction
	sess mongo.Session
}

func NewStorage(db *mongo.Database) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{s: s}
}

func (s *Storage) Debt() repository.DebtRepo {
	return &DebtRepo{s: s}
}

func (s *Storage) Notification() repository.NotificationRepo {
	return &NotificationRepo{s: s}
}

func (s *Storage) NewReminderBatch() repository.ReminderBatch {
	return &ReminderBatch{s: s}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// InTx runs fn in multi-document transaction
// Nested calls join the outer transaction
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	return s.withTx(ctx, func(txs *Storage) error {
		return fn(txs)
	})
}

func (s *Storage) withTx(ctx context.Context, fn func(*Storage) error) error {
	if s.sess != nil {
		return fn(s)
	}

	sess, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(_ mongo.SessionContext) (any, error) {
		return nil, fn(&Storage{db: s.db, sess: sess})
	})

	return err
}

// Bind ctx to the storage session so operations join the transaction
func (s *Storage) bind(ctx context.Context) context.Context {
	if s.sess == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, s.sess)
}

func (s *Storage) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}
