package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/pacta/internal/apperrors"
	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/service/debt"
	"github.com/nkiryanov/pacta/internal/service/reminder"
)

type fakeUsers struct {
	createErr error
	tokenErr  error
	listErr   error

	gotToken string
	gotLimit int
	list     []models.Notification
}

func (f *fakeUsers) CreateUser(_ context.Context, name string, email string) (models.User, error) {
	if f.createErr != nil {
		return models.User{}, f.createErr
	}
	return models.User{
		ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Name:      name,
		Email:     email,
		CreatedAt: time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeUsers) SetPushToken(_ context.Context, _ uuid.UUID, token string) error {
	f.gotToken = token
	return f.tokenErr
}

func (f *fakeUsers) ListNotifications(_ context.Context, _ uuid.UUID, limit int) ([]models.Notification, error) {
	f.gotLimit = limit
	return f.list, f.listErr
}

type fakeDebts struct {
	err       error
	gotParams debt.CreateDebtParams
}

func (f *fakeDebts) CreateDebt(_ context.Context, p debt.CreateDebtParams) (models.Debt, error) {
	f.gotParams = p
	if f.err != nil {
		return models.Debt{}, f.err
	}
	return models.Debt{
		ID:          uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		CreatedByID: p.CreatedByID,
		CreditorID:  p.CreditorID,
		DebtorID:    p.DebtorID,
		Amount:      p.Amount,
		Status:      models.DebtStatusPending,
		DueAt:       p.DueAt,
		CreatedAt:   time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeDebts) UpdateStatus(_ context.Context, debtID uuid.UUID, status string, updatedByID uuid.UUID) (models.Debt, error) {
	if f.err != nil {
		return models.Debt{}, f.err
	}
	return models.Debt{ID: debtID, Status: status, UpdatedByID: &updatedByID, Amount: decimal.NewFromInt(5)}, nil
}

type fakeRunner struct {
	summary models.ReminderSummary
	err     error

	// Receives the run deadline when not nil
	deadlines chan time.Time
}

func (f *fakeRunner) Run(ctx context.Context) (models.ReminderSummary, error) {
	if f.deadlines != nil {
		deadline, _ := ctx.Deadline()
		f.deadlines <- deadline
	}
	return f.summary, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestRouter(t *testing.T) {
	type deps struct {
		users  *fakeUsers
		debts  *fakeDebts
		runner *fakeRunner
		pinger fakePinger
	}

	serve := func(t *testing.T, d deps) *httptest.Server {
		if d.users == nil {
			d.users = &fakeUsers{}
		}
		if d.debts == nil {
			d.debts = &fakeDebts{}
		}
		if d.runner == nil {
			d.runner = &fakeRunner{}
		}

		srv := httptest.NewServer(NewRouter(d.users, d.debts, d.runner, d.pinger, logger.NewNoOpLogger()))
		t.Cleanup(srv.Close)
		return srv
	}

	do := func(t *testing.T, method, url, body string) (int, string) {
		req, err := http.NewRequestWithContext(t.Context(), method, url, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(data)
	}

	const userID = "11111111-1111-1111-1111-111111111111"
	const debtID = "22222222-2222-2222-2222-222222222222"

	t.Run("POST /api/users", func(t *testing.T) {
		t.Run("created", func(t *testing.T) {
			srv := serve(t, deps{})

			code, body := do(t, http.MethodPost, srv.URL+"/api/users", `{"name": "Ayşe", "email": "ayse@example.com"}`)

			require.Equal(t, http.StatusCreated, code, body)
			assert.JSONEq(t, `{
				"id": "11111111-1111-1111-1111-111111111111",
				"name": "Ayşe",
				"email": "ayse@example.com",
				"createdAt": "2024-06-14T09:00:00Z"
			}`, body)
		})

		t.Run("duplicate", func(t *testing.T) {
			srv := serve(t, deps{users: &fakeUsers{createErr: apperrors.ErrUserAlreadyExists}})

			code, _ := do(t, http.MethodPost, srv.URL+"/api/users", `{"name": "Ayşe", "email": "ayse@example.com"}`)

			require.Equal(t, http.StatusConflict, code)
		})

		t.Run("neither name nor email", func(t *testing.T) {
			srv := serve(t, deps{})

			code, body := do(t, http.MethodPost, srv.URL+"/api/users", `{}`)

			require.Equal(t, http.StatusBadRequest, code)
			require.Contains(t, body, "validation_failed")
		})
	})

	t.Run("PUT /api/users/{id}/push-token", func(t *testing.T) {
		t.Run("set", func(t *testing.T) {
			users := &fakeUsers{}
			srv := serve(t, deps{users: users})

			code, body := do(t, http.MethodPut, srv.URL+"/api/users/"+userID+"/push-token", `{"token": "telegram:42"}`)

			require.Equal(t, http.StatusNoContent, code, body)
			require.Equal(t, "telegram:42", users.gotToken)
		})

		t.Run("unknown user", func(t *testing.T) {
			srv := serve(t, deps{users: &fakeUsers{tokenErr: apperrors.ErrUserNotFound}})

			code, _ := do(t, http.MethodPut, srv.URL+"/api/users/"+userID+"/push-token", `{"token": "x"}`)

			require.Equal(t, http.StatusNotFound, code)
		})

		t.Run("bad id", func(t *testing.T) {
			srv := serve(t, deps{})

			code, _ := do(t, http.MethodPut, srv.URL+"/api/users/not-uuid/push-token", `{"token": "x"}`)

			require.Equal(t, http.StatusBadRequest, code)
		})
	})

	t.Run("GET /api/users/{id}/notifications", func(t *testing.T) {
		t.Run("list", func(t *testing.T) {
			users := &fakeUsers{list: []models.Notification{{
				Type:    models.NotificationDueReminder,
				Title:   "Borç Hatırlatması",
				Message: "message",
				Amount:  decimal.RequireFromString("10.5"),
			}}}
			srv := serve(t, deps{users: users})

			code, body := do(t, http.MethodGet, srv.URL+"/api/users/"+userID+"/notifications?limit=5", "")

			require.Equal(t, http.StatusOK, code, body)
			require.Equal(t, 5, users.gotLimit)
			require.Contains(t, body, `"type":"due_reminder"`)
			require.Contains(t, body, `"amount":"10.5"`)
			require.Contains(t, body, `"isRead":false`)
		})

		t.Run("empty list is array", func(t *testing.T) {
			srv := serve(t, deps{})

			code, body := do(t, http.MethodGet, srv.URL+"/api/users/"+userID+"/notifications", "")

			require.Equal(t, http.StatusOK, code)
			assert.JSONEq(t, `[]`, body)
		})

		t.Run("bad limit", func(t *testing.T) {
			srv := serve(t, deps{})

			code, _ := do(t, http.MethodGet, srv.URL+"/api/users/"+userID+"/notifications?limit=-1", "")

			require.Equal(t, http.StatusBadRequest, code)
		})

		t.Run("unknown user", func(t *testing.T) {
			srv := serve(t, deps{users: &fakeUsers{listErr: apperrors.ErrUserNotFound}})

			code, _ := do(t, http.MethodGet, srv.URL+"/api/users/"+userID+"/notifications", "")

			require.Equal(t, http.StatusNotFound, code)
		})
	})

	t.Run("POST /api/debts", func(t *testing.T) {
		valid := `{
			"creditorId": "11111111-1111-1111-1111-111111111111",
			"debtorId": "33333333-3333-3333-3333-333333333333",
			"createdById": "11111111-1111-1111-1111-111111111111",
			"amount": "150.25",
			"dueAt": "2024-06-20T09:00:00+03:00"
		}`

		t.Run("created", func(t *testing.T) {
			debts := &fakeDebts{}
			srv := serve(t, deps{debts: debts})

			code, body := do(t, http.MethodPost, srv.URL+"/api/debts", valid)

			require.Equal(t, http.StatusCreated, code, body)
			require.Contains(t, body, `"id":"`+debtID+`"`)
			require.Contains(t, body, `"status":"pending"`)
			require.Contains(t, body, `"dueReminderSent":false`)
			require.True(t, debts.gotParams.Amount.Equal(decimal.RequireFromString("150.25")))
			require.True(t, debts.gotParams.DueAt.Equal(time.Date(2024, 6, 20, 6, 0, 0, 0, time.UTC)))
		})

		t.Run("validation", func(t *testing.T) {
			srv := serve(t, deps{})

			code, body := do(t, http.MethodPost, srv.URL+"/api/debts", `{"amount": 0, "status": "approved"}`)

			require.Equal(t, http.StatusBadRequest, code)
			require.Contains(t, body, `"creditorId"`)
			require.Contains(t, body, `"amount":"Value must be positive with at most 2 decimal places"`)
			require.Contains(t, body, `"status"`)
		})

		t.Run("amount beyond stored precision", func(t *testing.T) {
			for _, amount := range []string{`0.004`, `"10.005"`, `"1000000000000"`} {
				debts := &fakeDebts{}
				srv := serve(t, deps{debts: debts})

				body := strings.Replace(valid, `"150.25"`, amount, 1)
				code, res := do(t, http.MethodPost, srv.URL+"/api/debts", body)

				require.Equal(t, http.StatusBadRequest, code, amount)
				require.Contains(t, res, `"amount":"Value must be positive with at most 2 decimal places"`)
				require.True(t, debts.gotParams.Amount.IsZero(), "service must not be called for %s", amount)
			}
		})

		t.Run("invalid amount from service", func(t *testing.T) {
			srv := serve(t, deps{debts: &fakeDebts{err: apperrors.ErrDebtAmountInvalid}})

			code, _ := do(t, http.MethodPost, srv.URL+"/api/debts", valid)

			require.Equal(t, http.StatusBadRequest, code)
		})

		t.Run("unknown party", func(t *testing.T) {
			srv := serve(t, deps{debts: &fakeDebts{err: apperrors.ErrDebtPartyUnknown}})

			code, _ := do(t, http.MethodPost, srv.URL+"/api/debts", valid)

			require.Equal(t, http.StatusUnprocessableEntity, code)
		})

		t.Run("same party", func(t *testing.T) {
			srv := serve(t, deps{debts: &fakeDebts{err: apperrors.ErrDebtSameParty}})

			code, _ := do(t, http.MethodPost, srv.URL+"/api/debts", valid)

			require.Equal(t, http.StatusBadRequest, code)
		})
	})

	t.Run("POST /api/debts/{id}/status", func(t *testing.T) {
		body := `{"status": "approved", "updatedById": "33333333-3333-3333-3333-333333333333"}`

		t.Run("approved", func(t *testing.T) {
			srv := serve(t, deps{})

			code, res := do(t, http.MethodPost, srv.URL+"/api/debts/"+debtID+"/status", body)

			require.Equal(t, http.StatusOK, code, res)
			require.Contains(t, res, `"status":"approved"`)
			require.Contains(t, res, `"updatedById":"33333333-3333-3333-3333-333333333333"`)
		})

		t.Run("not pending", func(t *testing.T) {
			srv := serve(t, deps{debts: &fakeDebts{err: errors.Join(errors.New("wrapped"), apperrors.ErrDebtNotPending)}})

			code, _ := do(t, http.MethodPost, srv.URL+"/api/debts/"+debtID+"/status", body)

			require.Equal(t, http.StatusConflict, code)
		})

		t.Run("not found", func(t *testing.T) {
			srv := serve(t, deps{debts: &fakeDebts{err: apperrors.ErrDebtNotFound}})

			code, _ := do(t, http.MethodPost, srv.URL+"/api/debts/"+debtID+"/status", body)

			require.Equal(t, http.StatusNotFound, code)
		})

		t.Run("missing updated by", func(t *testing.T) {
			srv := serve(t, deps{})

			code, _ := do(t, http.MethodPost, srv.URL+"/api/debts/"+debtID+"/status", `{"status": "approved"}`)

			require.Equal(t, http.StatusBadRequest, code)
		})
	})

	t.Run("POST /api/reminders/run", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			runner := &fakeRunner{summary: models.ReminderSummary{Examined: 2, Notified: 1, Skipped: 1}}
			srv := serve(t, deps{runner: runner})

			code, body := do(t, http.MethodPost, srv.URL+"/api/reminders/run", "")

			require.Equal(t, http.StatusOK, code, body)
			require.Contains(t, body, `"message":"Due reminders sent"`)
			require.Contains(t, body, `"examined":2`)
			require.Contains(t, body, `"notified":1`)
			require.Contains(t, body, `"skipped":1`)
		})

		t.Run("failed", func(t *testing.T) {
			srv := serve(t, deps{runner: &fakeRunner{err: errors.New("commit failed")}})

			code, body := do(t, http.MethodPost, srv.URL+"/api/reminders/run", "")

			require.Equal(t, http.StatusInternalServerError, code)
			require.Contains(t, body, `"error":"service_error"`)
		})

		t.Run("run is bounded by timeout", func(t *testing.T) {
			runner := &fakeRunner{deadlines: make(chan time.Time, 1)}
			srv := serve(t, deps{runner: runner})

			started := time.Now()
			code, _ := do(t, http.MethodPost, srv.URL+"/api/reminders/run", "")
			require.Equal(t, http.StatusOK, code)

			deadline := <-runner.deadlines
			require.False(t, deadline.IsZero(), "manual run must have a deadline")
			require.WithinDuration(t, started.Add(reminder.DefaultRunTimeout), deadline, time.Minute)
		})

		t.Run("method not allowed", func(t *testing.T) {
			srv := serve(t, deps{})

			code, _ := do(t, http.MethodGet, srv.URL+"/api/reminders/run", "")

			require.Equal(t, http.StatusMethodNotAllowed, code)
		})
	})

	t.Run("GET /health", func(t *testing.T) {
		srv := serve(t, deps{})
		code, body := do(t, http.MethodGet, srv.URL+"/health", "")
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"status": "ok"}`, body)

		down := serve(t, deps{pinger: fakePinger{err: errors.New("connection refused")}})
		code, _ = do(t, http.MethodGet, down.URL+"/health", "")
		require.Equal(t, http.StatusServiceUnavailable, code)
	})
}
