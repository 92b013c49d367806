package payables

import (
	"context"
	"testing"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDashboardService_Summary(t *testing.T) {
	accounts := new(MockAccountRepository)
	billings := new(MockBillingRepository)
	today := payables.NewDate(2024, time.March, 10)
	svc := NewDashboardService(accounts, billings, payables.FixedClock{Date: today}, zap.NewNop())

	accounts.On("Totals", mock.Anything, today).Return(&payables.AccountTotals{
		TotalAmount:    decimal.RequireFromString("3000.00"),
		TotalCount:     4,
		OnTimeAmount:   decimal.RequireFromString("1500.00"),
		OnTimeCount:    2,
		DueTodayAmount: decimal.RequireFromString("500.00"),
		DueTodayCount:  1,
		OverdueAmount:  decimal.RequireFromString("1000.00"),
		OverdueCount:   1,
	}, nil)
	latest, err := payables.NewBilling(payables.BillingParams{
		ReferenceMonth: payables.NewDate(2024, time.February, 1),
		Gross:          decimal.RequireFromString("12500.00"),
	})
	require.NoError(t, err)
	billings.On("FindLatest", mock.Anything).Return(latest, nil)

	dto, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-03-10", dto.Date)
	assert.Equal(t, int64(4), dto.Total.Count)
	assert.Equal(t, "R$ 3.000,00", dto.Total.AmountFormatted)
	assert.Equal(t, int64(1), dto.Overdue.Count)
	require.NotNil(t, dto.LatestBilling)
	assert.Equal(t, "2024-02", dto.LatestBilling.ReferenceMonth)
	assert.True(t, dto.Profit.Equal(decimal.RequireFromString("9500")))
	assert.Equal(t, "R$ 9.500,00", dto.ProfitFormatted)
}

func TestDashboardService_SummaryWithoutBilling(t *testing.T) {
	accounts := new(MockAccountRepository)
	billings := new(MockBillingRepository)
	today := payables.NewDate(2024, time.March, 10)
	svc := NewDashboardService(accounts, billings, payables.FixedClock{Date: today}, zap.NewNop())

	accounts.On("Totals", mock.Anything, today).Return(&payables.AccountTotals{
		TotalAmount: decimal.RequireFromString("800.00"),
		TotalCount:  1,
	}, nil)
	billings.On("FindLatest", mock.Anything).Return(nil, payables.ErrBillingNotFound)

	dto, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Nil(t, dto.LatestBilling)
	assert.True(t, dto.Profit.IsZero())
	assert.Equal(t, "R$ 0,00", dto.ProfitFormatted)
}
