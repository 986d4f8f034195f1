package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/repository"
)

const (
	DefaultNotificationsLimit = 50
	MaxNotificationsLimit     = 200
)

type UserService struct {
	userRepo         repository.UserRepo
	notificationRepo repository.NotificationRepo
}

func NewService(userRepo repository.UserRepo, notificationRepo repository.NotificationRepo) *UserService {
	return &UserService{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}
}

func (s *UserService) CreateUser(ctx context.Context, name string, email string) (models.User, error) {
	user, err := s.userRepo.CreateUser(ctx, models.User{
		Name:  strings.TrimSpace(name),
		Email: strings.ToLower(strings.TrimSpace(email)),
	})
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUser(ctx, userID)
}

// Empty token unregisters the device
func (s *UserService) SetPushToken(ctx context.Context, userID uuid.UUID, token string) error {
	return s.userRepo.SetPushToken(ctx, userID, strings.TrimSpace(token))
}

// ListNotifications returns newest notifications of the user first
// Non positive limit means DefaultNotificationsLimit, limit is capped with MaxNotificationsLimit
func (s *UserService) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	switch {
	case limit <= 0:
		limit = DefaultNotificationsLimit
	case limit > MaxNotificationsLimit:
		limit = MaxNotificationsLimit
	}

	if _, err := s.userRepo.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	return s.notificationRepo.ListNotifications(ctx, userID, limit)
}
