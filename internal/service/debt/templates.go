package debt

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/pacta/internal/models"
)

// Notification for the counterpart of a new debt. ok is false when nobody has to be asked
func approvalRequest(d models.Debt, creditor, debtor models.User) (n models.Notification, ok bool) {
	if d.Status == models.DebtStatusNote {
		return n, false
	}

	n = models.Notification{
		Type:          models.NotificationApprovalRequest,
		RelatedDebtID: d.ID,
		CreatedByID:   d.CreatedByID,
		CreditorID:    d.CreditorID,
		DebtorID:      d.DebtorID,
		Amount:        d.Amount,
	}
	amount := d.Amount.String()

	switch d.CreatedByID {
	case d.CreditorID:
		n.ToUserID = d.DebtorID
		n.Title = "Yeni Borç Bildirimi"
		n.Message = fmt.Sprintf("%s size %s₺ tutarında bir borç bildiriminde bulundu.", creditor.DisplayName(), amount)
	case d.DebtorID:
		n.ToUserID = d.CreditorID
		n.Title = "Yeni Alacak Talebi"
		n.Message = fmt.Sprintf("%s sizden %s₺ tutarında bir talepte bulundu.", debtor.DisplayName(), amount)
	default:
		return n, false
	}

	return n, true
}

// Notification for the counterpart of whoever approved or rejected the debt
func resolution(d models.Debt, updatedByID uuid.UUID, creditor, debtor models.User) models.Notification {
	n := models.Notification{
		RelatedDebtID: d.ID,
		CreatedByID:   updatedByID,
		CreditorID:    d.CreditorID,
		DebtorID:      d.DebtorID,
		Amount:        d.Amount,
	}

	verb := "reddedildi"
	n.Type, n.Title = models.NotificationRequestRejected, "Talep Reddedildi"
	if d.Status == models.DebtStatusApproved {
		verb = "onaylandı"
		n.Type, n.Title = models.NotificationRequestApproved, "Talep Onaylandı"
	}

	amount := d.Amount.String()
	if updatedByID == d.CreditorID {
		n.ToUserID = d.DebtorID
		n.Message = fmt.Sprintf("%s₺ tutarındaki alacak talebiniz %s tarafından %s.", amount, creditor.DisplayName(), verb)
	} else {
		n.ToUserID = d.CreditorID
		n.Message = fmt.Sprintf("%s₺ tutarındaki borç bildiriminiz %s tarafından %s.", amount, debtor.DisplayName(), verb)
	}

	return n
}
