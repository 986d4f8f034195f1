package models

import (
	"time"

	"github.com/google/uuid"
)

// Inclusive instant range of one civil day
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Outcome of one due reminder run
type ReminderSummary struct {
	RunID      uuid.UUID `json:"run_id"`
	Window     Window    `json:"window"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Examined int `json:"examined"`
	Notified int `json:"notified"`
	Skipped  int `json:"skipped"`

	PushSent   int `json:"push_sent"`
	PushFailed int `json:"push_failed"`
}
