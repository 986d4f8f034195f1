package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/models"
)

// DefaultRunTimeout bounds a single reminder run
const DefaultRunTimeout = 10 * time.Minute

type runner interface {
	Run(ctx context.Context) (models.ReminderSummary, error)
}

// Scheduler triggers runs by a cron spec in a fixed location
// A tick that comes while the previous run is still going is skipped
type Scheduler struct {
	schedule   cron.Schedule
	loc        *time.Location
	runner     runner
	runTimeout time.Duration
	logger     logger.Logger
}

// spec is standard 5 fields cron spec or descriptor like "@daily"
func NewScheduler(spec string, loc *time.Location, r runner, l logger.Logger) (*Scheduler, error) {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		schedule:   schedule,
		loc:        loc,
		runner:     r,
		runTimeout: DefaultRunTimeout,
		logger:     l,
	}, nil
}

func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// Start runs scheduler until ctx is done
// Returned channel is closed when the scheduler and the running job (if any) stopped
func (s *Scheduler) Start(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	cl := logger.CronLogger{L: s.logger}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() { s.tick(ctx) }))
	c.Start()

	s.logger.Info("Reminder scheduler started", "next_run", s.schedule.Next(time.Now().In(s.loc)))

	go func() {
		defer close(idleStopped)
		<-ctx.Done()
		<-c.Stop().Done()
		s.logger.Debug("Reminder scheduler stopped")
	}()

	return idleStopped
}

func (s *Scheduler) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	_, err := s.runner.Run(ctx)
	if err != nil {
		// Nothing was flagged, the next tick or a manual trigger retries
		s.logger.Error("Scheduled reminder run failed", "error", err)
	}
}
