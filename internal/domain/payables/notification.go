package payables

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NotificationKind identifies why a message is sent
type NotificationKind string

const (
	NotificationPaymentConfirmation NotificationKind = "payment_confirmation"
	NotificationDueSoonAlert        NotificationKind = "due_soon_alert"
	NotificationDueTodayAlert       NotificationKind = "due_today_alert"
)

// Notification is a rendered message waiting to be delivered
type Notification struct {
	Kind      NotificationKind
	AccountID uuid.UUID
	Phone     string
	Message   string
	// Reference is the business date the message refers to (payment or due date, ISO format)
	Reference string
}

// SendResult is the notifier's response to a delivered message
type SendResult struct {
	StatusCode int             `json:"status_code"`
	Response   json.RawMessage `json:"response"`
}

// Notifier delivers text messages to a phone number
type Notifier interface {
	SendText(ctx context.Context, phone, message string) (*SendResult, error)
}

// NotificationQueue accepts notifications for asynchronous delivery
type NotificationQueue interface {
	EnqueueNotification(ctx context.Context, n Notification) error
}

// NotifyErrorKind classifies delivery failures
type NotifyErrorKind string

const (
	NotifyTimeout    NotifyErrorKind = "timeout"
	NotifyConnection NotifyErrorKind = "connection"
	NotifyHTTP       NotifyErrorKind = "http_error"
	NotifyGeneric    NotifyErrorKind = "generic"
)

// NotifyError is a classified delivery failure
type NotifyError struct {
	Kind       NotifyErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *NotifyError) Error() string {
	switch e.Kind {
	case NotifyHTTP:
		return fmt.Sprintf("notifier %s: status %d: %s", e.Kind, e.StatusCode, e.Body)
	default:
		if e.Err != nil {
			return fmt.Sprintf("notifier %s (%d): %v", e.Kind, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("notifier %s (%d)", e.Kind, e.StatusCode)
	}
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying later may succeed
func (e *NotifyError) Temporary() bool {
	switch e.Kind {
	case NotifyTimeout, NotifyConnection:
		return true
	case NotifyHTTP:
		return e.StatusCode == 429 || e.StatusCode >= 500
	}
	return false
}

// Confirmation template placeholders
const (
	PlaceholderAccountName = "{{nome_conta}}"
	PlaceholderAmount      = "{{valor}}"
	PlaceholderPaymentDate = "{{data_pagamento}}"
)

// RenderConfirmation substitutes the account name, amount and payment date into tmpl
func RenderConfirmation(tmpl, accountName string, amount decimal.Decimal, paymentDate time.Time) string {
	r := strings.NewReplacer(
		PlaceholderAccountName, accountName,
		PlaceholderAmount, FormatBRL(amount),
		PlaceholderPaymentDate, FormatDateBR(paymentDate),
	)
	return r.Replace(tmpl)
}

// RenderDueAlert builds the alert text for a due-soon or due-today transition.
// Other statuses produce no alert.
func RenderDueAlert(status AccountStatus, accountName string, due time.Time) (string, NotificationKind, bool) {
	var header, headline string
	var kind NotificationKind
	switch status {
	case StatusDueSoon:
		header, headline, kind = "⚠️ ATENÇÃO! ⚠️", "A Conta Abaixo Está Próxima a Vencer.", NotificationDueSoonAlert
	case StatusDueToday:
		header, headline, kind = "🚨 ATENÇÃO! 🚨", "A Conta Abaixo a Vencer Hoje.", NotificationDueTodayAlert
	default:
		return "", "", false
	}
	msg := header + "\n\n" +
		headline + "\n\n" +
		"Vencimento: " + FormatDateBR(due) + "\n\n" +
		"Nome da Conta: " + accountName + "\n\n" +
		"👉 Verifique o Pagamento Para Evitar Transtornos."
	return msg, kind, true
}
