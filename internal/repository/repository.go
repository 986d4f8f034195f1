package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/pacta/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user. ID and CreatedAt are assigned by repository if zero
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// If user not found must return apperrors.ErrUserNotFound
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)

	// Set (or clear with empty string) the device token
	// If user not found must return apperrors.ErrUserNotFound
	SetPushToken(ctx context.Context, userID uuid.UUID, token string) error
}

// Debt repository interface
type DebtRepo interface {
	// Create debt. ID and CreatedAt are assigned by repository if zero
	// If any party is not a known user has to return apperrors.ErrDebtPartyUnknown
	CreateDebt(ctx context.Context, debt models.Debt) (models.Debt, error)

	// If debt not found must return apperrors.ErrDebtNotFound
	GetDebt(ctx context.Context, debtID uuid.UUID) (models.Debt, error)

	// Move pending debt to the new status
	// If debt not found must return apperrors.ErrDebtNotFound
	// If debt is not pending must return apperrors.ErrDebtNotPending
	ResolvePending(ctx context.Context, debtID uuid.UUID, status string, updatedByID uuid.UUID) (models.Debt, error)

	// List debts with due instant in [start, end] inclusive, in ascending due order
	ListDueBetween(ctx context.Context, start time.Time, end time.Time) ([]models.Debt, error)
}

// Notification repository interface
type NotificationRepo interface {
	// Create notification. ID and CreatedAt are assigned by repository if zero
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)

	// Newest first, at most limit items
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
}

// ReminderBatch buffers due reminder writes and applies them as one atomic unit
//
// Stage never touches the network. Commit applies every staged pair (the
// notification create and the dueReminderSent flag update of its related
// debt) or none of them. The flag update is conditional: a pair whose debt
// is already flagged at commit time is not applied (no notification is
// created for it) without failing the rest of the batch.
type ReminderBatch interface {
	Stage(n models.Notification)
	Len() int

	// Commit returns ids of debts whose pair was applied
	Commit(ctx context.Context) (applied []uuid.UUID, err error)
}

type Storage interface {
	User() UserRepo
	Debt() DebtRepo
	Notification() NotificationRepo

	NewReminderBatch() ReminderBatch

	// Run fn in transaction: commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error

	Ping(ctx context.Context) error
}
