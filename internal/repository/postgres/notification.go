package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/pacta/internal/models"
)

type NotificationRepo struct {
	DB DBTX
}

const notificationColumns = `id, created_at, to_user_id, type, title, message, related_debt_id, created_by_id, creditor_id, debtor_id, amount, is_read`

const createNotification = `-- name: CreateNotification
INSERT INTO notifications (` + notificationColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + notificationColumns

func (r *NotificationRepo) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createNotification,
		n.ID, n.CreatedAt, n.ToUserID, n.Type, n.Title, n.Message,
		n.RelatedDebtID, n.CreatedByID, n.CreditorID, n.DebtorID, n.Amount, n.IsRead,
	)
	created, err := pgx.CollectOneRow(rows, rowToNotification)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, fmt.Errorf("notification references unknown record: %w", err)
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listNotifications = `-- name: ListNotifications
SELECT ` + notificationColumns + ` FROM notifications
WHERE to_user_id = $1
ORDER BY created_at DESC, id
LIMIT $2
`

func (r *NotificationRepo) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	rows, _ := r.DB.Query(ctx, listNotifications, userID, limit)
	list, err := pgx.CollectRows(rows, rowToNotification)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

func rowToNotification(row pgx.CollectableRow) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(
		&n.ID, &n.CreatedAt, &n.ToUserID, &n.Type, &n.Title, &n.Message,
		&n.RelatedDebtID, &n.CreatedByID, &n.CreditorID, &n.DebtorID, &n.Amount, &n.IsRead,
	)
	return n, err
}
