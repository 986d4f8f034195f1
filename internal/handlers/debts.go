package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/pacta/internal/apperrors"
	"github.com/nkiryanov/pacta/internal/handlers/render"
	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/service/debt"
)

type DebtResponse struct {
	ID              uuid.UUID       `json:"id"`
	CreatedByID     uuid.UUID       `json:"createdById"`
	UpdatedByID     *uuid.UUID      `json:"updatedById,omitempty"`
	CreditorID      uuid.UUID       `json:"creditorId"`
	DebtorID        uuid.UUID       `json:"debtorId"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	DueAt           time.Time       `json:"dueAt"`
	DueReminderSent bool            `json:"dueReminderSent"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func toDebtResponse(d models.Debt) DebtResponse {
	return DebtResponse{
		ID:              d.ID,
		CreatedByID:     d.CreatedByID,
		UpdatedByID:     d.UpdatedByID,
		CreditorID:      d.CreditorID,
		DebtorID:        d.DebtorID,
		Amount:          d.Amount,
		Status:          d.Status,
		DueAt:           d.DueAt,
		DueReminderSent: d.DueReminderSent,
		CreatedAt:       d.CreatedAt,
	}
}

func handleCreateDebt(debtService debtService, logger logger.Logger) http.Handler {
	type request struct {
		CreditorID  uuid.UUID       `json:"creditorId" validate:"required"`
		DebtorID    uuid.UUID       `json:"debtorId" validate:"required"`
		CreatedByID uuid.UUID       `json:"createdById" validate:"required"`
		Amount      decimal.Decimal `json:"amount" validate:"amount"`
		Status      string          `json:"status" validate:"omitempty,oneof=pending note"`
		DueAt       time.Time       `json:"dueAt" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		d, err := debtService.CreateDebt(r.Context(), debt.CreateDebtParams{
			CreditorID:  data.CreditorID,
			DebtorID:    data.DebtorID,
			CreatedByID: data.CreatedByID,
			Amount:      data.Amount,
			Status:      data.Status,
			DueAt:       data.DueAt,
		})
		if err != nil {
			renderDebtError(w, logger, err)
			return
		}

		render.JSONWithStatus(w, toDebtResponse(d), http.StatusCreated)
	})
}

func handleUpdateDebtStatus(debtService debtService, logger logger.Logger) http.Handler {
	type request struct {
		Status      string    `json:"status" validate:"required,oneof=approved rejected"`
		UpdatedByID uuid.UUID `json:"updatedById" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		debtID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		d, err := debtService.UpdateStatus(r.Context(), debtID, data.Status, data.UpdatedByID)
		if err != nil {
			renderDebtError(w, logger, err)
			return
		}

		render.JSON(w, toDebtResponse(d))
	})
}

func renderDebtError(w http.ResponseWriter, logger logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrDebtNotFound):
		render.ServiceError(w, "Debt not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrDebtNotPending):
		render.ServiceError(w, "Debt is not pending", http.StatusConflict)
	case errors.Is(err, apperrors.ErrDebtPartyUnknown):
		render.ServiceError(w, "Debt party is not a known user", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrDebtSameParty):
		render.ServiceError(w, "Creditor and debtor must differ", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrDebtAmountInvalid):
		render.ServiceError(w, "Amount must be positive with at most 2 decimal places", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrDebtStatusInvalid):
		render.ServiceError(w, "Status is not allowed", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrMissingUpdatedBy):
		render.ServiceError(w, "Updated by is required", http.StatusBadRequest)
	default:
		logger.Error("Debt operation failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
