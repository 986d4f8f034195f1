package mongodb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nkiryanov/pacta/internal/models"
)

// Documents keep ids as strings: uuid.UUID would be encoded as BSON array

type userDoc struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"createdAt"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email,omitempty"`
	PushToken string    `bson:"pushToken"`
}

type debtDoc struct {
	ID              string               `bson:"_id"`
	CreatedAt       time.Time            `bson:"createdAt"`
	CreatedByID     string               `bson:"createdById"`
	UpdatedByID     string               `bson:"updatedById,omitempty"`
	CreditorID      string               `bson:"creditorId"`
	DebtorID        string               `bson:"debtorId"`
	Amount          primitive.Decimal128 `bson:"amount"`
	Status          string               `bson:"status"`
	DueAt           time.Time            `bson:"dueAt"`
	DueReminderSent bool                 `bson:"dueReminderSent"`
}

type notificationDoc struct {
	ID            string               `bson:"_id"`
	CreatedAt     time.Time            `bson:"createdAt"`
	ToUserID      string               `bson:"toUserId"`
	Type          string               `bson:"type"`
	Title         string               `bson:"title"`
	Message       string               `bson:"message"`
	RelatedDebtID string               `bson:"relatedDebtId"`
	CreatedByID   string               `bson:"createdById"`
	CreditorID    string               `bson:"creditorId"`
	DebtorID      string               `bson:"debtorId"`
	Amount        primitive.Decimal128 `bson:"amount"`
	IsRead        bool                 `bson:"isRead"`
}

func toUserDoc(u models.User) userDoc {
	return userDoc{
		ID:        u.ID.String(),
		CreatedAt: u.CreatedAt,
		Name:      u.Name,
		Email:     u.Email,
		PushToken: u.PushToken,
	}
}

func (d userDoc) model() (models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("corrupted user id %q: %w", d.ID, err)
	}

	return models.User{
		ID:        id,
		CreatedAt: d.CreatedAt,
		Name:      d.Name,
		Email:     d.Email,
		PushToken: d.PushToken,
	}, nil
}

func toDebtDoc(d models.Debt) (debtDoc, error) {
	amount, err := toDecimal128(d.Amount)
	if err != nil {
		return debtDoc{}, err
	}

	doc := debtDoc{
		ID:              d.ID.String(),
		CreatedAt:       d.CreatedAt,
		CreatedByID:     d.CreatedByID.String(),
		CreditorID:      d.CreditorID.String(),
		DebtorID:        d.DebtorID.String(),
		Amount:          amount,
		Status:          d.Status,
		DueAt:           d.DueAt,
		DueReminderSent: d.DueReminderSent,
	}
	if d.UpdatedByID != nil {
		doc.UpdatedByID = d.UpdatedByID.String()
	}

	return doc, nil
}

func (d debtDoc) model() (models.Debt, error) {
	var (
		m   models.Debt
		err error
	)

	ids := []struct {
		dst *uuid.UUID
		src string
	}{
		{&m.ID, d.ID},
		{&m.CreatedByID, d.CreatedByID},
		{&m.CreditorID, d.CreditorID},
		{&m.DebtorID, d.DebtorID},
	}
	for _, id := range ids {
		if *id.dst, err = uuid.Parse(id.src); err != nil {
			return m, fmt.Errorf("corrupted debt %q: %w", d.ID, err)
		}
	}

	if d.UpdatedByID != "" {
		updatedBy, err := uuid.Parse(d.UpdatedByID)
		if err != nil {
			return m, fmt.Errorf("corrupted debt %q: %w", d.ID, err)
		}
		m.UpdatedByID = &updatedBy
	}

	if m.Amount, err = fromDecimal128(d.Amount); err != nil {
		return m, fmt.Errorf("corrupted debt %q: %w", d.ID, err)
	}

	m.CreatedAt = d.CreatedAt
	m.Status = d.Status
	m.DueAt = d.DueAt
	m.DueReminderSent = d.DueReminderSent

	return m, nil
}

func toNotificationDoc(n models.Notification) (notificationDoc, error) {
	amount, err := toDecimal128(n.Amount)
	if err != nil {
		return notificationDoc{}, err
	}

	return notificationDoc{
		ID:            n.ID.String(),
		CreatedAt:     n.CreatedAt,
		ToUserID:      n.ToUserID.String(),
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		RelatedDebtID: n.RelatedDebtID.String(),
		CreatedByID:   n.CreatedByID.String(),
		CreditorID:    n.CreditorID.String(),
		DebtorID:      n.DebtorID.String(),
		Amount:        amount,
		IsRead:        n.IsRead,
	}, nil
}

func (d notificationDoc) model() (models.Notification, error) {
	var (
		m   models.Notification
		err error
	)

	ids := []struct {
		dst *uuid.UUID
		src string
	}{
		{&m.ID, d.ID},
		{&m.ToUserID, d.ToUserID},
		{&m.RelatedDebtID, d.RelatedDebtID},
		{&m.CreatedByID, d.CreatedByID},
		{&m.CreditorID, d.CreditorID},
		{&m.DebtorID, d.DebtorID},
	}
	for _, id := range ids {
		if *id.dst, err = uuid.Parse(id.src); err != nil {
			return m, fmt.Errorf("corrupted notification %q: %w", d.ID, err)
		}
	}

	if m.Amount, err = fromDecimal128(d.Amount); err != nil {
		return m, fmt.Errorf("corrupted notification %q: %w", d.ID, err)
	}

	m.CreatedAt = d.CreatedAt
	m.Type = d.Type
	m.Title = d.Title
	m.Message = d.Message
	m.IsRead = d.IsRead

	return m, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return v, fmt.Errorf("amount %s can't be stored: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}
