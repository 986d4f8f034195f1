package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	NotificationApprovalRequest = "approval_request"
	NotificationRequestApproved = "request_approved"
	NotificationRequestRejected = "request_rejected"
	NotificationDueReminder     = "due_reminder"
)

type Notification struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	ToUserID      uuid.UUID
	Type          string
	Title         string
	Message       string
	RelatedDebtID uuid.UUID
	CreatedByID   uuid.UUID
	CreditorID    uuid.UUID
	DebtorID      uuid.UUID
	Amount        decimal.Decimal
	IsRead        bool
}
