package payables

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderConfirmation(t *testing.T) {
	msg := RenderConfirmation(
		"Olá! A conta {{nome_conta}} no valor de {{valor}} foi paga em {{data_pagamento}}. {{nome_conta}} ok",
		"Energia", dec("1234.5"), NewDate(2024, time.March, 12),
	)
	assert.Equal(t, "Olá! A conta Energia no valor de R$ 1.234,50 foi paga em 12/03/2024. Energia ok", msg)
}

func TestRenderDueAlert(t *testing.T) {
	due := NewDate(2024, time.March, 10)

	msg, kind, ok := RenderDueAlert(StatusDueSoon, "Internet", due)
	assert.True(t, ok)
	assert.Equal(t, NotificationDueSoonAlert, kind)
	assert.Equal(t, "⚠️ ATENÇÃO! ⚠️\n\nA Conta Abaixo Está Próxima a Vencer.\n\nVencimento: 10/03/2024\n\nNome da Conta: Internet\n\n👉 Verifique o Pagamento Para Evitar Transtornos.", msg)

	msg, kind, ok = RenderDueAlert(StatusDueToday, "Internet", due)
	assert.True(t, ok)
	assert.Equal(t, NotificationDueTodayAlert, kind)
	assert.Contains(t, msg, "🚨 ATENÇÃO! 🚨\n\nA Conta Abaixo a Vencer Hoje.")

	_, _, ok = RenderDueAlert(StatusOverdue, "Internet", due)
	assert.False(t, ok)
	_, _, ok = RenderDueAlert(StatusOnTime, "Internet", due)
	assert.False(t, ok)
}

func TestNotifyError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	tests := []struct {
		err       *NotifyError
		temporary bool
	}{
		{&NotifyError{Kind: NotifyTimeout, StatusCode: 504}, true},
		{&NotifyError{Kind: NotifyConnection, StatusCode: 503, Err: cause}, true},
		{&NotifyError{Kind: NotifyHTTP, StatusCode: 400, Body: `{"error":"bad number"}`}, false},
		{&NotifyError{Kind: NotifyHTTP, StatusCode: 502, Body: "bad gateway"}, true},
		{&NotifyError{Kind: NotifyHTTP, StatusCode: 429, Body: "slow down"}, true},
		{&NotifyError{Kind: NotifyGeneric, StatusCode: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.temporary, tt.err.Temporary())
		})
	}

	wrapped := &NotifyError{Kind: NotifyConnection, StatusCode: 503, Err: cause}
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, `notifier http_error: status 400: {"error":"bad number"}`, tests[2].err.Error())
}
