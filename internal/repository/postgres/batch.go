package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/pacta/internal/models"
)

// Flag the debt and create notification only when the flag was still false.
// The row lock taken by UPDATE makes an overlapping batch wait and then see the flag set
const stageReminder = `-- name: StageReminder
WITH flagged AS (
	UPDATE debts SET due_reminder_sent = true
	WHERE id = $1 AND due_reminder_sent = false
	RETURNING id
)
INSERT INTO notifications (id, to_user_id, type, title, message, related_debt_id, created_by_id, creditor_id, debtor_id, amount, is_read)
SELECT $2::uuid, $3::uuid, $4::text, $5::text, $6::text, flagged.id, $7::uuid, $8::uuid, $9::uuid, $10::numeric, false
FROM flagged
RETURNING related_debt_id
`

type ReminderBatch struct {
	db    DBTX
	batch *pgx.Batch
	debts []uuid.UUID
}

func NewReminderBatch(db DBTX) *ReminderBatch {
	return &ReminderBatch{db: db, batch: &pgx.Batch{}}
}

// Stage queues the pair locally. Nothing is sent until Commit
func (b *ReminderBatch) Stage(n models.Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	b.batch.Queue(stageReminder,
		n.RelatedDebtID, n.ID, n.ToUserID, n.Type, n.Title, n.Message,
		n.CreatedByID, n.CreditorID, n.DebtorID, n.Amount,
	)
	b.debts = append(b.debts, n.RelatedDebtID)
}

func (b *ReminderBatch) Len() int {
	return len(b.debts)
}

// Commit sends all staged statements in one round trip inside one transaction
// The batch is empty after Commit whatever the result
func (b *ReminderBatch) Commit(ctx context.Context) (applied []uuid.UUID, err error) {
	batch, debts := b.batch, b.debts
	b.batch, b.debts = &pgx.Batch{}, nil

	if len(debts) == 0 {
		return nil, nil
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
			if err != nil {
				applied = nil
				err = fmt.Errorf("db commit error: %w", err)
			}
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	results := tx.SendBatch(ctx, batch)

	applied = make([]uuid.UUID, 0, len(debts))
	for _, debtID := range debts {
		var flagged uuid.UUID
		qErr := results.QueryRow().Scan(&flagged)

		switch {
		case qErr == nil:
			applied = append(applied, flagged)
		case errors.Is(qErr, pgx.ErrNoRows):
			// Flag was already set: someone else reminded this debt
			continue
		default:
			_ = results.Close()
			return nil, fmt.Errorf("db error on debt %s: %w", debtID, qErr)
		}
	}

	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return applied, nil
}
