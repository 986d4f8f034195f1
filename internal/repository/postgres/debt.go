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

	"github.com/nkiryanov/pacta/internal/apperrors"
	"github.com/nkiryanov/pacta/internal/models"
)

type DebtRepo struct {
	DB DBTX
}

const debtColumns = `id, created_at, created_by_id, updated_by_id, creditor_id, debtor_id, amount, status, due_at, due_reminder_sent`

const createDebt = `-- name: CreateDebt
INSERT INTO debts (` + debtColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + debtColumns

func (r *DebtRepo) CreateDebt(ctx context.Context, d models.Debt) (models.Debt, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createDebt,
		d.ID, d.CreatedAt, d.CreatedByID, d.UpdatedByID, d.CreditorID, d.DebtorID,
		d.Amount, d.Status, d.DueAt, d.DueReminderSent,
	)
	debt, err := pgx.CollectOneRow(rows, rowToDebt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return debt, apperrors.ErrDebtPartyUnknown
		}

		return debt, fmt.Errorf("db error: %w", err)
	}

	return debt, nil
}

const getDebt = `-- name: GetDebt
SELECT ` + debtColumns + ` FROM debts
WHERE id = $1
`

func (r *DebtRepo) GetDebt(ctx context.Context, debtID uuid.UUID) (models.Debt, error) {
	rows, _ := r.DB.Query(ctx, getDebt, debtID)
	debt, err := pgx.CollectOneRow(rows, rowToDebt)

	switch {
	case err == nil:
		return debt, nil
	case errors.Is(err, pgx.ErrNoRows):
		return debt, apperrors.ErrDebtNotFound
	default:
		return debt, fmt.Errorf("db error: %w", err)
	}
}

// Status changes only if the debt is still pending, so concurrent resolutions can't both win
const resolvePending = `-- name: ResolvePending
UPDATE debts SET status = $2, updated_by_id = $3
WHERE id = $1 AND status = 'pending'
RETURNING ` + debtColumns

func (r *DebtRepo) ResolvePending(ctx context.Context, debtID uuid.UUID, status string, updatedByID uuid.UUID) (models.Debt, error) {
	rows, _ := r.DB.Query(ctx, resolvePending, debtID, status, updatedByID)
	debt, err := pgx.CollectOneRow(rows, rowToDebt)

	switch {
	case err == nil:
		return debt, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Distinguish missing debt from already resolved one
		if _, err := r.GetDebt(ctx, debtID); err != nil {
			return debt, err
		}
		return debt, apperrors.ErrDebtNotPending
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return debt, apperrors.ErrDebtPartyUnknown
		}
		return debt, fmt.Errorf("db error: %w", err)
	}
}

const listDueBetween = `-- name: ListDueBetween
SELECT ` + debtColumns + ` FROM debts
WHERE due_at >= $1 AND due_at <= $2
ORDER BY due_at, id
`

func (r *DebtRepo) ListDueBetween(ctx context.Context, start time.Time, end time.Time) ([]models.Debt, error) {
	rows, _ := r.DB.Query(ctx, listDueBetween, start, end)
	debts, err := pgx.CollectRows(rows, rowToDebt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return debts, nil
}

func rowToDebt(row pgx.CollectableRow) (models.Debt, error) {
	var d models.Debt
	err := row.Scan(
		&d.ID, &d.CreatedAt, &d.CreatedByID, &d.UpdatedByID, &d.CreditorID, &d.DebtorID,
		&d.Amount, &d.Status, &d.DueAt, &d.DueReminderSent,
	)
	return d, err
}
