package debt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/pacta/internal/apperrors"
	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/repository"
	"github.com/nkiryanov/pacta/internal/service/push"
)

type CreateDebtParams struct {
	CreditorID  uuid.UUID
	DebtorID    uuid.UUID
	CreatedByID uuid.UUID
	Amount      decimal.Decimal
	Status      string // pending when empty
	DueAt       time.Time
}

// DebtService records debts and tells the other party about every change
type DebtService struct {
	storage repository.Storage

	// Optional. Notifications are pushed best-effort after commit
	sender push.Sender
	logger logger.Logger
}

func NewService(storage repository.Storage, sender push.Sender, l logger.Logger) *DebtService {
	return &DebtService{
		storage: storage,
		sender:  sender,
		logger:  l,
	}
}

func (s *DebtService) CreateDebt(ctx context.Context, p CreateDebtParams) (models.Debt, error) {
	var debt models.Debt

	if p.Status == "" {
		p.Status = models.DebtStatusPending
	}
	switch {
	case p.Status != models.DebtStatusPending && p.Status != models.DebtStatusNote:
		return debt, apperrors.ErrDebtStatusInvalid
	case p.CreditorID == p.DebtorID:
		return debt, apperrors.ErrDebtSameParty
	case !models.IsValidAmount(p.Amount):
		return debt, apperrors.ErrDebtAmountInvalid
	}

	var notification *models.Notification

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		creditor, debtor, err := parties(ctx, tx, p.CreditorID, p.DebtorID)
		if err != nil {
			return err
		}

		debt, err = tx.Debt().CreateDebt(ctx, models.Debt{
			CreatedByID: p.CreatedByID,
			CreditorID:  p.CreditorID,
			DebtorID:    p.DebtorID,
			Amount:      p.Amount,
			Status:      p.Status,
			DueAt:       p.DueAt,
		})
		if err != nil {
			return err
		}

		n, ok := approvalRequest(debt, creditor, debtor)
		if !ok {
			s.logger.Debug("Debt needs no approval request", "debt_id", debt.ID, "status", debt.Status)
			return nil
		}

		n, err = tx.Notification().CreateNotification(ctx, n)
		if err != nil {
			return err
		}
		notification = &n
		return nil
	})
	if err != nil {
		return debt, fmt.Errorf("can't create debt. Err: %w", err)
	}

	s.push(ctx, notification)
	return debt, nil
}

// UpdateStatus approves or rejects pending debt
func (s *DebtService) UpdateStatus(ctx context.Context, debtID uuid.UUID, status string, updatedByID uuid.UUID) (models.Debt, error) {
	var debt models.Debt

	switch {
	case updatedByID == uuid.Nil:
		return debt, apperrors.ErrMissingUpdatedBy
	case status != models.DebtStatusApproved && status != models.DebtStatusRejected:
		return debt, apperrors.ErrDebtStatusInvalid
	}

	var notification models.Notification

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		var err error
		debt, err = tx.Debt().ResolvePending(ctx, debtID, status, updatedByID)
		if err != nil {
			return err
		}

		creditor, debtor, err := parties(ctx, tx, debt.CreditorID, debt.DebtorID)
		if err != nil {
			return err
		}

		notification, err = tx.Notification().CreateNotification(ctx, resolution(debt, updatedByID, creditor, debtor))
		return err
	})
	if err != nil {
		return debt, fmt.Errorf("can't update debt status. Err: %w", err)
	}

	s.push(ctx, &notification)
	return debt, nil
}

func parties(ctx context.Context, tx repository.Storage, creditorID, debtorID uuid.UUID) (creditor, debtor models.User, err error) {
	creditor, err = tx.User().GetUser(ctx, creditorID)
	if err == nil {
		debtor, err = tx.User().GetUser(ctx, debtorID)
	}

	if errors.Is(err, apperrors.ErrUserNotFound) {
		err = apperrors.ErrDebtPartyUnknown
	}
	return creditor, debtor, err
}

// Push delivery failures are only logged
func (s *DebtService) push(ctx context.Context, n *models.Notification) {
	if s.sender == nil || n == nil {
		return
	}

	recipient, err := s.storage.User().GetUser(ctx, n.ToUserID)
	if err != nil {
		s.logger.Warn("Failed to get notification recipient", "error", err, "notification_id", n.ID)
		return
	}
	if recipient.PushToken == "" {
		return
	}

	err = s.sender.Send(ctx, push.Message{
		Token: recipient.PushToken,
		Title: n.Title,
		Body:  n.Message,
		Data: map[string]string{
			"type":   n.Type,
			"debtId": n.RelatedDebtID.String(),
		},
	})
	if err != nil {
		s.logger.Warn("Push delivery failed", "error", err, "code", push.ErrorCode(err), "notification_id", n.ID)
	}
}
