package payables

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAccount(t *testing.T, recurrence payables.Recurrence, today time.Time) *payables.Account {
	t.Helper()
	a, err := payables.NewAccount(payables.AccountParams{
		Name:                 "Internet Fibra",
		GroupID:              uuid.New(),
		Kind:                 payables.KindFixed,
		Recurrence:           recurrence,
		Amount:               decimal.RequireFromString("199.90"),
		DueDate:              payables.NewDate(2024, time.March, 10),
		AlertLeadDays:        3,
		ConfirmationPhone:    "(11) 98765-4321",
		AlertPhone:           "11 91234-5678",
		ConfirmationTemplate: "Conta {{nome_conta}} de {{valor}} paga em {{data_pagamento}}",
	}, today)
	require.NoError(t, err)
	a.GroupName = "Escritório"
	return a
}

type paymentFixture struct {
	accounts  *MockAccountRepository
	history   *MockHistoryRepository
	queue     *MockQueue
	publisher *recordingPublisher
	metrics   *recordingMetrics
	service   *PaymentService
}

func newPaymentFixture(today time.Time, withQueue bool) *paymentFixture {
	f := &paymentFixture{
		accounts:  new(MockAccountRepository),
		history:   new(MockHistoryRepository),
		queue:     new(MockQueue),
		publisher: &recordingPublisher{},
		metrics:   newRecordingMetrics(),
	}
	opts := []PaymentServiceOption{WithPaymentMetrics(f.metrics)}
	if withQueue {
		opts = append(opts, WithNotificationQueue(f.queue))
	}
	f.service = NewPaymentService(f.accounts, f.history, f.publisher,
		payables.FixedClock{Date: today}, zap.NewNop(), opts...)
	return f
}

func TestPaymentService_MarkPaidRecurring(t *testing.T) {
	today := payables.NewDate(2024, time.March, 12)
	f := newPaymentFixture(today, true)
	account := newTestAccount(t, payables.RecurrenceMonthly, payables.NewDate(2024, time.March, 1))

	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.accounts.On("SavePayment", mock.Anything, account, mock.AnythingOfType("*payables.PaymentHistory")).Return(nil)
	f.queue.On("EnqueueNotification", mock.Anything, mock.MatchedBy(func(n payables.Notification) bool {
		return n.Kind == payables.NotificationPaymentConfirmation &&
			n.Phone == "5511987654321" &&
			n.Reference == "2024-03-12" &&
			n.Message == "Conta Internet Fibra de R$ 199,90 paga em 12/03/2024"
	})).Return(nil)

	result, err := f.service.MarkPaid(context.Background(), account.ID, MarkPaidInput{})
	require.NoError(t, err)

	assert.Equal(t, NotificationQueued, result.Notification)
	assert.Equal(t, "2024-04-10", result.Account.DueDate)
	assert.False(t, result.Account.Paid)
	assert.Nil(t, result.Account.PaymentDate)
	assert.Equal(t, string(payables.StatusOnTime), result.Account.Status)
	assert.Equal(t, "2024-03-10", result.History.DueDate)
	assert.Equal(t, "2024-03-12", result.History.PaymentDate)
	assert.Equal(t, 2, result.History.DaysLate)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	paid, ok := events[0].(*payables.AccountPaidEvent)
	require.True(t, ok)
	assert.Equal(t, payables.NewDate(2024, time.April, 10), paid.NextDueDate)
	assert.Empty(t, account.GetDomainEvents())

	assert.Equal(t, 1, f.metrics.notifications["payment_confirmation/queued"])
	f.accounts.AssertExpectations(t)
	f.queue.AssertExpectations(t)
}

func TestPaymentService_MarkPaidOnceClosesAccount(t *testing.T) {
	f := newPaymentFixture(payables.NewDate(2024, time.March, 8), false)
	account := newTestAccount(t, payables.RecurrenceOnce, payables.NewDate(2024, time.March, 1))
	account.ConfirmationTemplate = ""

	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.accounts.On("SavePayment", mock.Anything, account, mock.Anything).Return(nil)

	payDate := payables.NewDate(2024, time.March, 9)
	result, err := f.service.MarkPaid(context.Background(), account.ID, MarkPaidInput{PaymentDate: &payDate})
	require.NoError(t, err)

	assert.Equal(t, NotificationNotConfigured, result.Notification)
	assert.True(t, result.Account.Paid)
	assert.False(t, result.Account.Active)
	assert.Equal(t, "2024-03-10", result.Account.DueDate)
	require.NotNil(t, result.Account.PaymentDate)
	assert.Equal(t, "2024-03-09", *result.Account.PaymentDate)
	assert.Equal(t, 0, result.History.DaysLate)
	f.queue.AssertNotCalled(t, "EnqueueNotification", mock.Anything, mock.Anything)
}

func TestPaymentService_EnqueueFailureDoesNotFailPayment(t *testing.T) {
	f := newPaymentFixture(payables.NewDate(2024, time.March, 10), true)
	account := newTestAccount(t, payables.RecurrenceQuarterly, payables.NewDate(2024, time.March, 1))

	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.accounts.On("SavePayment", mock.Anything, account, mock.Anything).Return(nil)
	f.queue.On("EnqueueNotification", mock.Anything, mock.Anything).Return(errors.New("queue is full"))

	result, err := f.service.MarkPaid(context.Background(), account.ID, MarkPaidInput{})
	require.NoError(t, err)

	assert.Equal(t, "enqueue_failed: queue is full", result.Notification)
	assert.Equal(t, "2024-06-10", result.Account.DueDate)
	assert.Equal(t, 1, f.metrics.notifications["payment_confirmation/enqueue_failed: queue is full"])
}

func TestPaymentService_NoQueueReportsDisabled(t *testing.T) {
	f := newPaymentFixture(payables.NewDate(2024, time.March, 10), false)
	account := newTestAccount(t, payables.RecurrenceMonthly, payables.NewDate(2024, time.March, 1))

	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.accounts.On("SavePayment", mock.Anything, account, mock.Anything).Return(nil)

	result, err := f.service.MarkPaid(context.Background(), account.ID, MarkPaidInput{})
	require.NoError(t, err)
	assert.Equal(t, NotificationDisabled, result.Notification)
}

func TestPaymentService_SaveFailureSkipsSideEffects(t *testing.T) {
	f := newPaymentFixture(payables.NewDate(2024, time.March, 10), true)
	account := newTestAccount(t, payables.RecurrenceMonthly, payables.NewDate(2024, time.March, 1))

	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.accounts.On("SavePayment", mock.Anything, account, mock.Anything).Return(errors.New("connection reset"))

	result, err := f.service.MarkPaid(context.Background(), account.ID, MarkPaidInput{})
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, f.publisher.Events())
	f.queue.AssertNotCalled(t, "EnqueueNotification", mock.Anything, mock.Anything)
}

func TestPaymentService_MarkPaidRejectsClosedAccount(t *testing.T) {
	f := newPaymentFixture(payables.NewDate(2024, time.March, 10), true)
	account := newTestAccount(t, payables.RecurrenceOnce, payables.NewDate(2024, time.March, 1))
	account.Active = false

	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)

	_, err := f.service.MarkPaid(context.Background(), account.ID, MarkPaidInput{})
	assert.ErrorIs(t, err, payables.ErrAccountClosed)
	f.accounts.AssertNotCalled(t, "SavePayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_MarkPaidUnknownAccount(t *testing.T) {
	f := newPaymentFixture(payables.NewDate(2024, time.March, 10), true)
	id := uuid.New()
	f.accounts.On("FindByID", mock.Anything, id).Return(nil, payables.ErrAccountNotFound)

	_, err := f.service.MarkPaid(context.Background(), id, MarkPaidInput{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaymentService_ListHistoryDefaultsToPaymentDate(t *testing.T) {
	f := newPaymentFixture(payables.NewDate(2024, time.March, 10), false)
	accountID := uuid.New()
	entries := []payables.PaymentHistory{{
		ID:          uuid.New(),
		AccountID:   accountID,
		AccountName: "Internet Fibra",
		Amount:      decimal.RequireFromString("199.90"),
		DueDate:     payables.NewDate(2024, time.February, 10),
		PaymentDate: payables.NewDate(2024, time.February, 9),
	}}
	f.history.On("FindAll", mock.Anything, mock.MatchedBy(func(filter payables.PaymentHistoryFilter) bool {
		return filter.OrderBy == "payment_date" && filter.PageSize == 20 && *filter.AccountID == accountID
	})).Return(entries, int64(1), nil)

	page, err := f.service.ListHistory(context.Background(), payables.PaymentHistoryFilter{AccountID: &accountID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2024-02-09", page.Items[0].PaymentDate)
	assert.Equal(t, 1, page.TotalPages)
}
