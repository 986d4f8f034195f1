package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/nkiryanov/pacta/internal/models"
)

type ReminderBatch struct {
	s      *Storage
	staged []models.Notification
}

// Stage keeps the pair in memory. Nothing is sent until Commit
func (b *ReminderBatch) Stage(n models.Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	b.staged = append(b.staged, n)
}

func (b *ReminderBatch) Len() int {
	return len(b.staged)
}

// Commit applies staged pairs in one transaction
// The flag filter makes an overlapping transaction conflict (and retry) or match nothing
func (b *ReminderBatch) Commit(ctx context.Context) ([]uuid.UUID, error) {
	staged := b.staged
	b.staged = nil

	if len(staged) == 0 {
		return nil, nil
	}

	var applied []uuid.UUID

	err := b.s.withTx(ctx, func(txs *Storage) error {
		// Callback may be retried on transient errors, start over each time
		applied = make([]uuid.UUID, 0, len(staged))
		now := time.Now().Truncate(time.Millisecond).UTC()

		for _, n := range staged {
			res, err := txs.collection(debtsCollection).UpdateOne(txs.bind(ctx),
				bson.M{"_id": n.RelatedDebtID.String(), "dueReminderSent": bson.M{"$ne": true}},
				bson.M{"$set": bson.M{"dueReminderSent": true}},
			)
			if err != nil {
				return fmt.Errorf("flag debt %s: %w", n.RelatedDebtID, err)
			}

			if res.ModifiedCount == 0 {
				continue
			}

			n.CreatedAt = now
			doc, err := toNotificationDoc(n)
			if err != nil {
				return err
			}

			if _, err := txs.collection(notificationsCollection).InsertOne(txs.bind(ctx), doc); err != nil {
				return fmt.Errorf("create notification for debt %s: %w", n.RelatedDebtID, err)
			}

			applied = append(applied, n.RelatedDebtID)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return applied, nil
}
