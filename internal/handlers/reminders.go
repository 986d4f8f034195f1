package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/pacta/internal/handlers/render"
	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/service/reminder"
)

// Manual trigger of the due reminder run
func handleRunReminders(runner reminderRunner, logger logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
		models.ReminderSummary
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Run has to complete even if client goes away, but not forever
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), reminder.DefaultRunTimeout)
		defer cancel()

		summary, err := runner.Run(ctx)
		if err != nil {
			logger.Error("Manual reminder run failed", "error", err, "run_id", summary.RunID)
			render.ServiceError(w, "Failed to send due reminders", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: "Due reminders sent", ReminderSummary: summary})
	})
}
