package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/repository"
	"github.com/nkiryanov/pacta/internal/service/push"
)

const defaultPushWorkers = 8

// Keeps summaries of finished runs somewhere outside the store
type runArchive interface {
	Save(ctx context.Context, summary models.ReminderSummary) error
}

// Processor sends due reminders for debts due on the current civil day
//
// Every unflagged debt gets exactly one notification record. The record and
// the debt flag are written by one atomic batch, so a failed run leaves nothing
// behind and may be repeated. Pushes are best-effort and run alongside the commit.
type Processor struct {
	storage repository.Storage
	sender  push.Sender
	loc     *time.Location

	countWorkers int
	now          func() time.Time
	archive      runArchive
	logger       logger.Logger
}

type Option func(*Processor)

func WithPushWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.countWorkers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

func WithArchive(a runArchive) Option {
	return func(p *Processor) {
		p.archive = a
	}
}

func NewProcessor(storage repository.Storage, sender push.Sender, loc *time.Location, l logger.Logger, opts ...Option) *Processor {
	p := &Processor{
		storage:      storage,
		sender:       sender,
		loc:          loc,
		countWorkers: defaultPushWorkers,
		now:          time.Now,
		logger:       l,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run processes debts due today once. The error is returned only when the
// query or the commit fail; in that case no debt is flagged by this run.
func (p *Processor) Run(ctx context.Context) (models.ReminderSummary, error) {
	summary := models.ReminderSummary{
		RunID:     uuid.New(),
		StartedAt: p.now(),
	}
	summary.Window = DayWindow(summary.StartedAt, p.loc)

	log := p.logger.With("run_id", summary.RunID)
	log.Info("Due reminder run started", "window_start", summary.Window.Start, "window_end", summary.Window.End)

	debts, err := p.storage.Debt().ListDueBetween(ctx, summary.Window.Start, summary.Window.End)
	if err != nil {
		log.Error("Failed to list due debts", "error", err)
		return summary, fmt.Errorf("can't list due debts. Err: %w", err)
	}
	summary.Examined = len(debts)

	batch := p.storage.NewReminderBatch()
	jobs := make(chan pushJob, len(debts))
	names := make(map[uuid.UUID]string)

	for _, debt := range debts {
		if debt.DueReminderSent {
			summary.Skipped++
			continue
		}

		n := dueReminder(debt, p.creditorName(ctx, log, debt.CreditorID, names))
		batch.Stage(n)
		jobs <- pushJob{debtorID: debt.DebtorID, notification: n}
	}
	close(jobs)

	staged := batch.Len()

	d := &dispatcher{
		countWorkers: p.countWorkers,
		users:        p.storage.User(),
		sender:       p.sender,
		logger:       log,
	}
	pushStopped := d.Dispatch(ctx, jobs)

	applied, commitErr := batch.Commit(ctx)

	<-pushStopped
	summary.PushSent = int(d.sent.Load())
	summary.PushFailed = int(d.failed.Load())
	summary.FinishedAt = p.now()

	if commitErr != nil {
		log.Error("Failed to commit due reminders", "error", commitErr, "staged", staged)
		return summary, fmt.Errorf("can't commit due reminders. Err: %w", commitErr)
	}

	// Debts flagged by an overlapping run between our query and commit
	summary.Notified = len(applied)
	summary.Skipped += staged - len(applied)

	log.Info("Due reminder run finished",
		"examined", summary.Examined,
		"notified", summary.Notified,
		"skipped", summary.Skipped,
		"push_sent", summary.PushSent,
		"push_failed", summary.PushFailed,
	)

	if p.archive != nil {
		if err := p.archive.Save(ctx, summary); err != nil {
			log.Warn("Failed to archive run summary", "error", err)
		}
	}

	return summary, nil
}

// Lookup failures degrade to the placeholder name
func (p *Processor) creditorName(ctx context.Context, log logger.Logger, creditorID uuid.UUID, cache map[uuid.UUID]string) string {
	if name, ok := cache[creditorID]; ok {
		return name
	}

	name := models.UnknownUserName
	creditor, err := p.storage.User().GetUser(ctx, creditorID)
	if err != nil {
		log.Warn("Failed to get creditor, using placeholder name", "error", err, "creditor_id", creditorID)
	} else {
		name = creditor.DisplayName()
	}

	cache[creditorID] = name
	return name
}
