package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nkiryanov/pacta/internal/models"
)

type NotificationRepo struct {
	s *Storage
}

func (r *NotificationRepo) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.CreatedAt = n.CreatedAt.Truncate(time.Millisecond).UTC()

	doc, err := toNotificationDoc(n)
	if err != nil {
		return models.Notification{}, err
	}

	if _, err := r.s.collection(notificationsCollection).InsertOne(r.s.bind(ctx), doc); err != nil {
		return models.Notification{}, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

func (r *NotificationRepo) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	cursor, err := r.s.collection(notificationsCollection).Find(r.s.bind(ctx),
		bson.M{"toUserId": userID.String()},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var docs []notificationDoc
	if err := cursor.All(r.s.bind(ctx), &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	list := make([]models.Notification, 0, len(docs))
	for _, doc := range docs {
		n, err := doc.model()
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}

	return list, nil
}
