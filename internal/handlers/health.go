package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nkiryanov/pacta/internal/handlers/render"
	"github.com/nkiryanov/pacta/internal/logger"
)

const healthTimeout = 2 * time.Second

func handleHealth(pinger pinger, logger logger.Logger) http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := pinger.Ping(ctx); err != nil {
			logger.Warn("Health check failed", "error", err)
			render.ServiceError(w, "Storage is unavailable", http.StatusServiceUnavailable)
			return
		}

		render.JSON(w, response{Status: "ok"})
	})
}
