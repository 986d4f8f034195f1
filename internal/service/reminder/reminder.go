package reminder

import (
	"fmt"

	"github.com/nkiryanov/pacta/internal/models"
	"github.com/nkiryanov/pacta/internal/service/push"
)

const dueReminderTitle = "Borç Hatırlatması"

// Notification addressed to the debtor of a debt due today
func dueReminder(d models.Debt, creditorName string) models.Notification {
	return models.Notification{
		ToUserID:      d.DebtorID,
		Type:          models.NotificationDueReminder,
		Title:         dueReminderTitle,
		Message:       fmt.Sprintf("%s kişisine olan %s₺ tutarındaki borcunuzun son ödeme günü bugün.", creditorName, d.Amount.String()),
		RelatedDebtID: d.ID,
		CreatedByID:   d.CreditorID,
		CreditorID:    d.CreditorID,
		DebtorID:      d.DebtorID,
		Amount:        d.Amount,
	}
}

func pushMessage(n models.Notification, token string) push.Message {
	return push.Message{
		Token: token,
		Title: n.Title,
		Body:  n.Message,
		Data: map[string]string{
			"type":   n.Type,
			"debtId": n.RelatedDebtID.String(),
		},
	}
}
