package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/pacta/internal/apperrors"
	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/repository"
	"github.com/nkiryanov/pacta/internal/service/push"
)

// In memory storage with the same batch contract as the real stores
type memStorage struct {
	mu            sync.Mutex
	users         map[uuid.UUID]models.User
	debts         []models.Debt
	notifications []models.Notification

	listErr   error
	commitErr error
	userErr   error

	// Called inside Commit before staged pairs are applied
	beforeCommit func(s *memStorage)
}

func newMemStorage() *memStorage {
	return &memStorage{users: make(map[uuid.UUID]models.User)}
}

func (s *memStorage) addUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = u
	return u
}

func (s *memStorage) addDebt(d models.Debt) models.Debt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	s.debts = append(s.debts, d)
	return d
}

func (s *memStorage) debt(id uuid.UUID) models.Debt {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.debts {
		if d.ID == id {
			return d
		}
	}
	return models.Debt{}
}

func (s *memStorage) remindersFor(debtID uuid.UUID) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.RelatedDebtID == debtID && n.Type == models.NotificationDueReminder {
			out = append(out, n)
		}
	}
	return out
}

func (s *memStorage) countNotifications() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

func (s *memStorage) User() repository.UserRepo                  { return memUsers{s} }
func (s *memStorage) Debt() repository.DebtRepo                  { return memDebts{s} }
func (s *memStorage) Notification() repository.NotificationRepo  { return memNotifications{s} }
func (s *memStorage) NewReminderBatch() repository.ReminderBatch { return &memBatch{s: s} }
func (s *memStorage) Ping(context.Context) error                 { return nil }

func (s *memStorage) InTx(_ context.Context, fn func(repository.Storage) error) error {
	return fn(s)
}

type memUsers struct{ s *memStorage }

func (r memUsers) CreateUser(_ context.Context, u models.User) (models.User, error) {
	return r.s.addUser(u), nil
}

func (r memUsers) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userErr != nil {
		return models.User{}, r.s.userErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (r memUsers) SetPushToken(_ context.Context, id uuid.UUID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.PushToken = token
	r.s.users[id] = u
	return nil
}

type memDebts struct{ s *memStorage }

func (r memDebts) CreateDebt(_ context.Context, d models.Debt) (models.Debt, error) {
	return r.s.addDebt(d), nil
}

func (r memDebts) GetDebt(_ context.Context, id uuid.UUID) (models.Debt, error) {
	d := r.s.debt(id)
	if d.ID == uuid.Nil {
		return d, apperrors.ErrDebtNotFound
	}
	return d, nil
}

func (r memDebts) ResolvePending(context.Context, uuid.UUID, string, uuid.UUID) (models.Debt, error) {
	return models.Debt{}, apperrors.ErrDebtNotPending
}

func (r memDebts) ListDueBetween(_ context.Context, start, end time.Time) ([]models.Debt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.listErr != nil {
		return nil, r.s.listErr
	}
	var out []models.Debt
	for _, d := range r.s.debts {
		if !d.DueAt.Before(start) && !d.DueAt.After(end) {
			out = append(out, d)
		}
	}
	return out, nil
}

type memNotifications struct{ s *memStorage }

func (r memNotifications) CreateNotification(_ context.Context, n models.Notification) (models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications = append(r.s.notifications, n)
	return n, nil
}

func (r memNotifications) ListNotifications(context.Context, uuid.UUID, int) ([]models.Notification, error) {
	return nil, nil
}

type memBatch struct {
	s      *memStorage
	staged []models.Notification
}

func (b *memBatch) Stage(n models.Notification) { b.staged = append(b.staged, n) }
func (b *memBatch) Len() int                    { return len(b.staged) }

func (b *memBatch) Commit(context.Context) ([]uuid.UUID, error) {
	staged := b.staged
	b.staged = nil

	if hook := b.s.beforeCommit; hook != nil {
		hook(b.s)
	}

	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	if b.s.commitErr != nil {
		return nil, b.s.commitErr
	}

	var applied []uuid.UUID
	for _, n := range staged {
		for i := range b.s.debts {
			if b.s.debts[i].ID != n.RelatedDebtID || b.s.debts[i].DueReminderSent {
				continue
			}
			b.s.debts[i].DueReminderSent = true
			n.ID = uuid.New()
			n.CreatedAt = time.Now()
			b.s.notifications = append(b.s.notifications, n)
			applied = append(applied, n.RelatedDebtID)
		}
	}
	return applied, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []push.Message
	errs map[string]error // by token
}

func (f *fakeSender) Send(_ context.Context, m push.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return f.errs[m.Token]
}

func (f *fakeSender) messages() []push.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]push.Message(nil), f.sent...)
}

type fakeArchive struct {
	mu    sync.Mutex
	saved []models.ReminderSummary
	err   error
}

func (a *fakeArchive) Save(_ context.Context, s models.ReminderSummary) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, s)
	return a.err
}
