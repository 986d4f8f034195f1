package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/pacta/internal/handlers/middleware"
	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/service/debt"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	userService userService,
	debtService debtService,
	reminderRunner reminderRunner,
	pinger pinger,
	logger logger.Logger,
) http.Handler {
	api := http.NewServeMux()

	api.Handle("POST /users", handleCreateUser(userService, logger))
	api.Handle("PUT /users/{id}/push-token", handleSetPushToken(userService, logger))
	api.Handle("GET /users/{id}/notifications", handleListNotifications(userService, logger))

	api.Handle("POST /debts", handleCreateDebt(debtService, logger))
	api.Handle("POST /debts/{id}/status", handleUpdateDebtStatus(debtService, logger))

	api.Handle("POST /reminders/run", handleRunReminders(reminderRunner, logger))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("GET /health", handleHealth(pinger, logger))

	handler := chain(root,
		middleware.LoggerMiddleware(logger, "/health"),
	)

	return handler
}

type userService interface {
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	CreateUser(ctx context.Context, name string, email string) (models.User, error)

	// Has to return apperrors.ErrUserNotFound if user not found
	SetPushToken(ctx context.Context, userID uuid.UUID, token string) error

	// Has to return apperrors.ErrUserNotFound if user not found
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
}

type debtService interface {
	CreateDebt(ctx context.Context, p debt.CreateDebtParams) (models.Debt, error)
	UpdateStatus(ctx context.Context, debtID uuid.UUID, status string, updatedByID uuid.UUID) (models.Debt, error)
}

type reminderRunner interface {
	Run(ctx context.Context) (models.ReminderSummary, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}
