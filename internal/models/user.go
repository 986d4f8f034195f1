package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Name      string
	Email     string

	// Device token used for push delivery. Empty when the user never registered a device.
	// Tokens with "telegram:" prefix address a Telegram chat instead of a FCM device
	PushToken string
}

// Shown when a user has neither name nor email
const UnknownUserName = "Unknown"

// DisplayName falls back from name to email to UnknownUserName
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return UnknownUserName
	}
}
