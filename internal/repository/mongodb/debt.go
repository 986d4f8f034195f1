package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nkiryanov/pacta/internal/apperrors"
	"github.com/nkiryanov/pacta/internal/models"
)

type DebtRepo struct {
	s *Storage
}

func (r *DebtRepo) CreateDebt(ctx context.Context, d models.Debt) (models.Debt, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.CreatedAt = d.CreatedAt.Truncate(time.Millisecond).UTC()
	d.DueAt = d.DueAt.Truncate(time.Millisecond).UTC()

	doc, err := toDebtDoc(d)
	if err != nil {
		return models.Debt{}, err
	}

	// No foreign keys in mongo: check parties in the same transaction as insert
	err = r.s.withTx(ctx, func(txs *Storage) error {
		if err := checkUsersExist(ctx, txs, d.CreatedByID, d.CreditorID, d.DebtorID); err != nil {
			return err
		}

		_, err := txs.collection(debtsCollection).InsertOne(txs.bind(ctx), doc)
		return err
	})

	switch {
	case err == nil:
		return d, nil
	case errors.Is(err, apperrors.ErrDebtPartyUnknown):
		return models.Debt{}, err
	default:
		return models.Debt{}, fmt.Errorf("db error: %w", err)
	}
}

func checkUsersExist(ctx context.Context, s *Storage, ids ...uuid.UUID) error {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id.String()] = struct{}{}
	}

	in := make([]string, 0, len(unique))
	for id := range unique {
		in = append(in, id)
	}

	count, err := s.collection(usersCollection).CountDocuments(s.bind(ctx), bson.M{"_id": bson.M{"$in": in}})
	if err != nil {
		return err
	}

	if int(count) != len(in) {
		return apperrors.ErrDebtPartyUnknown
	}

	return nil
}

func (r *DebtRepo) GetDebt(ctx context.Context, debtID uuid.UUID) (models.Debt, error) {
	var doc debtDoc
	err := r.s.collection(debtsCollection).FindOne(r.s.bind(ctx), bson.M{"_id": debtID.String()}).Decode(&doc)

	switch {
	case err == nil:
		return doc.model()
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Debt{}, apperrors.ErrDebtNotFound
	default:
		return models.Debt{}, fmt.Errorf("db error: %w", err)
	}
}

func (r *DebtRepo) ResolvePending(ctx context.Context, debtID uuid.UUID, status string, updatedByID uuid.UUID) (models.Debt, error) {
	var doc debtDoc
	err := r.s.collection(debtsCollection).FindOneAndUpdate(r.s.bind(ctx),
		bson.M{"_id": debtID.String(), "status": models.DebtStatusPending},
		bson.M{"$set": bson.M{"status": status, "updatedById": updatedByID.String()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)

	switch {
	case err == nil:
		return doc.model()
	case errors.Is(err, mongo.ErrNoDocuments):
		// Distinguish missing debt from already resolved one
		if _, err := r.GetDebt(ctx, debtID); err != nil {
			return models.Debt{}, err
		}
		return models.Debt{}, apperrors.ErrDebtNotPending
	default:
		return models.Debt{}, fmt.Errorf("db error: %w", err)
	}
}

func (r *DebtRepo) ListDueBetween(ctx context.Context, start time.Time, end time.Time) ([]models.Debt, error) {
	cursor, err := r.s.collection(debtsCollection).Find(r.s.bind(ctx),
		bson.M{"dueAt": bson.M{"$gte": start, "$lte": end}},
		options.Find().SetSort(bson.D{{Key: "dueAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var docs []debtDoc
	if err := cursor.All(r.s.bind(ctx), &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	debts := make([]models.Debt, 0, len(docs))
	for _, doc := range docs {
		d, err := doc.model()
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}

	return debts, nil
}
