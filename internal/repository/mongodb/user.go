package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nkiryanov/pacta/internal/apperrors"
	"github.com/nkiryanov/pacta/internal/models"
)

type UserRepo struct {
	s *Storage
}

func (r *UserRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.CreatedAt = u.CreatedAt.Truncate(time.Millisecond).UTC()

	_, err := r.s.collection(usersCollection).InsertOne(r.s.bind(ctx), toUserDoc(u))

	switch {
	case err == nil:
		return u, nil
	case mongo.IsDuplicateKeyError(err):
		return models.User{}, apperrors.ErrUserAlreadyExists
	default:
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
}

func (r *UserRepo) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	var doc userDoc
	err := r.s.collection(usersCollection).FindOne(r.s.bind(ctx), bson.M{"_id": userID.String()}).Decode(&doc)

	switch {
	case err == nil:
		return doc.model()
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.User{}, apperrors.ErrUserNotFound
	default:
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
}

func (r *UserRepo) SetPushToken(ctx context.Context, userID uuid.UUID, token string) error {
	res, err := r.s.collection(usersCollection).UpdateOne(r.s.bind(ctx),
		bson.M{"_id": userID.String()},
		bson.M{"$set": bson.M{"pushToken": token}},
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if res.MatchedCount == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}
