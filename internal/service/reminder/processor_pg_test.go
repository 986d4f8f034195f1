package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/repository/postgres"
	"github.com/nkiryanov/pacta/internal/testutil"
)

func TestProcessor_Postgres(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Workers read users while the batch commits, so transaction bound storage won't do
	storage := postgres.NewStorage(pg.Pool)
	truncate := func() {
		_, err := pg.Pool.Exec(context.Background(), "TRUNCATE notifications, debts, users CASCADE")
		require.NoError(t, err)
	}

	loc := mustLoad(t, "Europe/Istanbul")
	now := time.Now().In(loc)

	seed := func(t *testing.T) (models.User, []models.Debt) {
		creditor, err := storage.User().CreateUser(t.Context(), models.User{Name: "Alacaklı"})
		require.NoError(t, err)
		debtor, err := storage.User().CreateUser(t.Context(), models.User{Name: "Borçlu", PushToken: "device-1"})
		require.NoError(t, err)

		window := DayWindow(now, loc)
		var debts []models.Debt
		for _, dueAt := range []time.Time{window.Start, window.End.Truncate(time.Microsecond), now} {
			d, err := storage.Debt().CreateDebt(t.Context(), models.Debt{
				CreatedByID: creditor.ID,
				CreditorID:  creditor.ID,
				DebtorID:    debtor.ID,
				Amount:      decimal.RequireFromString("99.90"),
				Status:      models.DebtStatusApproved,
				DueAt:       dueAt,
			})
			require.NoError(t, err)
			debts = append(debts, d)
		}
		return debtor, debts
	}

	countReminders := func(t *testing.T) int {
		var n int
		err := pg.Pool.QueryRow(t.Context(), "SELECT count(*) FROM notifications WHERE type = 'due_reminder'").Scan(&n)
		require.NoError(t, err)
		return n
	}

	t.Run("run twice notifies once", func(t *testing.T) {
		t.Cleanup(truncate)
		debtor, debts := seed(t)
		sender := &fakeSender{}
		p := NewProcessor(storage, sender, loc, logger.NewNoOpLogger())

		first, err := p.Run(t.Context())
		require.NoError(t, err)
		second, err := p.Run(t.Context())
		require.NoError(t, err)

		require.Equal(t, len(debts), first.Notified, "window bounds are inclusive")
		require.Equal(t, 0, second.Notified)
		require.Equal(t, len(debts), second.Skipped)
		require.Equal(t, len(debts), countReminders(t))

		list, err := storage.Notification().ListNotifications(t.Context(), debtor.ID, 10)
		require.NoError(t, err)
		require.Len(t, list, len(debts))
		require.Len(t, sender.messages(), len(debts))
	})

	t.Run("overlapping runs notify once", func(t *testing.T) {
		t.Cleanup(truncate)
		_, debts := seed(t)

		const runs = 4
		var wg sync.WaitGroup
		summaries := make([]models.ReminderSummary, runs)
		errs := make([]error, runs)
		for i := range runs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p := NewProcessor(storage, &fakeSender{}, loc, logger.NewNoOpLogger())
				summaries[i], errs[i] = p.Run(context.Background())
			}()
		}
		wg.Wait()

		notified := 0
		for i := range runs {
			require.NoError(t, errs[i])
			require.Equal(t, len(debts), summaries[i].Notified+summaries[i].Skipped)
			notified += summaries[i].Notified
		}
		require.Equal(t, len(debts), notified, "each debt is reminded by exactly one run")
		require.Equal(t, len(debts), countReminders(t))
	})
}
