package payables

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHistory is a write-once snapshot of one payment.
// It keeps copies of the account data so later edits do not rewrite history.
type PaymentHistory struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	AccountName   string
	GroupID       uuid.UUID
	GroupName     string
	Amount        decimal.Decimal
	DueDate       time.Time
	PaymentDate   time.Time
	DaysLate      int
	PaymentMethod PaymentType
	Note          string
	CreatedAt     time.Time
}

func newPaymentHistory(a *Account, paymentDate time.Time, note string) *PaymentHistory {
	daysLate := DaysLate(a.DueDate, paymentDate)
	system := fmt.Sprintf("Pagamento registrado em %s referente ao vencimento %s",
		FormatDateBR(paymentDate), FormatDateBR(a.DueDate))
	if daysLate > 0 {
		system += fmt.Sprintf(" (%d dia(s) de atraso)", daysLate)
	}
	if note != "" {
		system += "\n" + note
	}
	return &PaymentHistory{
		ID:            uuid.New(),
		AccountID:     a.ID,
		AccountName:   a.Name,
		GroupID:       a.GroupID,
		GroupName:     a.GroupName,
		Amount:        a.Amount,
		DueDate:       NormalizeDate(a.DueDate),
		PaymentDate:   NormalizeDate(paymentDate),
		DaysLate:      daysLate,
		PaymentMethod: a.Details.PaymentType,
		Note:          system,
		CreatedAt:     time.Now(),
	}
}
