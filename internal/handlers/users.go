package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/pacta/internal/apperrors"
	"github.com/nkiryanov/pacta/internal/handlers/render"
	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
)

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationResponse struct {
	ID            uuid.UUID       `json:"id"`
	ToUserID      uuid.UUID       `json:"toUserId"`
	Type          string          `json:"type"`
	Title         string          `json:"title"`
	Message       string          `json:"message"`
	RelatedDebtID uuid.UUID       `json:"relatedDebtId"`
	CreatedByID   uuid.UUID       `json:"createdById"`
	CreditorID    uuid.UUID       `json:"creditorId"`
	DebtorID      uuid.UUID       `json:"debtorId"`
	Amount        decimal.Decimal `json:"amount"`
	IsRead        bool            `json:"isRead"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func handleCreateUser(userService userService, logger logger.Logger) http.Handler {
	type request struct {
		Name  string `json:"name" validate:"required_without=Email,max=100"`
		Email string `json:"email" validate:"omitempty,email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := userService.CreateUser(r.Context(), data.Name, data.Email)
		switch {
		case err == nil:
			render.JSONWithStatus(w, UserResponse{ID: user.ID, Name: user.Name, Email: user.Email, CreatedAt: user.CreatedAt}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			logger.Error("Failed to create user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleSetPushToken(userService userService, logger logger.Logger) http.Handler {
	type request struct {
		// Empty token unregisters device
		Token string `json:"token" validate:"max=4096"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = userService.SetPushToken(r.Context(), userID, data.Token)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			logger.Error("Failed to set push token", "error", err, "user_id", userID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListNotifications(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				render.ServiceError(w, "Limit must be positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		list, err := userService.ListNotifications(r.Context(), userID, limit)
		switch {
		case err == nil:
			res := make([]NotificationResponse, 0, len(list))
			for _, n := range list {
				res = append(res, toNotificationResponse(n))
			}
			render.JSON(w, res)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			logger.Error("Failed to list notifications", "error", err, "user_id", userID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func toNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		ToUserID:      n.ToUserID,
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		RelatedDebtID: n.RelatedDebtID,
		CreatedByID:   n.CreatedByID,
		CreditorID:    n.CreditorID,
		DebtorID:      n.DebtorID,
		Amount:        n.Amount,
		IsRead:        n.IsRead,
		CreatedAt:     n.CreatedAt,
	}
}

// Writes 400 response and returns false if path value is not uuid
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		render.ServiceError(w, "Invalid "+name, http.StatusBadRequest)
		return id, false
	}
	return id, true
}
