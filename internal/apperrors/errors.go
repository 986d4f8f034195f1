package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrDebtNotFound      = errors.New("debt not found")
	ErrDebtNotPending    = errors.New("debt is not pending")
	ErrDebtStatusInvalid = errors.New("debt status is invalid")
	ErrDebtPartyUnknown  = errors.New("debt party is not a known user")
	ErrDebtSameParty     = errors.New("creditor and debtor must differ")
	ErrDebtAmountInvalid = errors.New("debt amount must be positive with at most 2 decimal places")
	ErrMissingUpdatedBy  = errors.New("updated by is required")
)
