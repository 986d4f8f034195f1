package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DebtStatusPending  = "pending"
	DebtStatusApproved = "approved"
	DebtStatusRejected = "rejected"

	// Non-actionable marker: the record is kept as a personal note and never awaits approval
	DebtStatusNote = "note"
)

type Debt struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	CreatedByID uuid.UUID
	UpdatedByID *uuid.UUID
	CreditorID  uuid.UUID
	DebtorID    uuid.UUID
	Amount      decimal.Decimal
	Status      string
	DueAt       time.Time

	// Set once the due date reminder has been committed for the debtor
	DueReminderSent bool
}

// Amounts are stored as NUMERIC(14, 2)
const (
	AmountPlaces    = 2
	AmountMaxDigits = 12
)

var amountLimit = decimal.New(1, AmountMaxDigits)

// IsValidAmount reports whether amount is positive and fits the stored precision exactly
func IsValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() &&
		amount.Equal(amount.Truncate(AmountPlaces)) &&
		amount.LessThan(amountLimit)
}
