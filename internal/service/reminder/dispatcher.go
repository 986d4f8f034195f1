package reminder

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/repository"
	"github.com/nkiryanov/pacta/internal/service/push"
)

type pushJob struct {
	debtorID     uuid.UUID
	notification models.Notification
}

// dispatcher delivers pushes with a fixed pool of workers
// Every failure is logged and counted, never returned
type dispatcher struct {
	countWorkers int

	users  repository.UserRepo
	sender push.Sender
	logger logger.Logger

	sent   atomic.Int64
	failed atomic.Int64
}

func (d *dispatcher) Dispatch(ctx context.Context, in <-chan pushJob) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < d.countWorkers; i++ {
		wg.Add(1)
		go func() {
			d.worker(ctx, in)
			wg.Done()
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		d.logger.Debug("Dispatcher stopped", "sent", d.sent.Load(), "failed", d.failed.Load())
	}()

	return idleStopped
}

func (d *dispatcher) worker(ctx context.Context, in <-chan pushJob) {
	for {
		select {
		case <-ctx.Done():
			return

		case job, ok := <-in:
			if !ok {
				return
			}
			d.deliver(ctx, job)
		}
	}
}

func (d *dispatcher) deliver(ctx context.Context, job pushJob) {
	debtID := job.notification.RelatedDebtID

	debtor, err := d.users.GetUser(ctx, job.debtorID)
	if err != nil {
		d.failed.Add(1)
		d.logger.Warn("Failed to get debtor for push", "error", err, "debt_id", debtID, "debtor_id", job.debtorID)
		return
	}

	if debtor.PushToken == "" {
		d.logger.Debug("Debtor has no push token", "debt_id", debtID, "debtor_id", job.debtorID)
		return
	}

	err = d.sender.Send(ctx, pushMessage(job.notification, debtor.PushToken))
	if err != nil {
		d.failed.Add(1)
		d.logger.Warn("Push delivery failed", "error", err, "code", push.ErrorCode(err), "debt_id", debtID, "debtor_id", job.debtorID)
		return
	}

	d.sent.Add(1)
}
