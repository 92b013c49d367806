package payables

import (
	"context"
	"errors"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DashboardService builds the payables overview
type DashboardService struct {
	accounts payables.AccountRepository
	billings payables.BillingRepository
	clock    payables.Clock
	logger   *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	accounts payables.AccountRepository,
	billings payables.BillingRepository,
	clock payables.Clock,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		accounts: accounts,
		billings: billings,
		clock:    clock,
		logger:   logger,
	}
}

// BucketDTO is an amount and the number of accounts behind it
type BucketDTO struct {
	Amount          decimal.Decimal `json:"amount"`
	AmountFormatted string          `json:"amount_formatted"`
	Count           int64           `json:"count"`
}

func newBucket(amount decimal.Decimal, count int64) BucketDTO {
	return BucketDTO{
		Amount:          amount,
		AmountFormatted: payables.FormatBRL(amount),
		Count:           count,
	}
}

// DashboardDTO summarizes what is owed against the latest billing
type DashboardDTO struct {
	Date            string          `json:"date"`
	Total           BucketDTO       `json:"total"`
	OnTime          BucketDTO       `json:"on_time"`
	DueToday        BucketDTO       `json:"due_today"`
	Overdue         BucketDTO       `json:"overdue"`
	LatestBilling   *BillingDTO     `json:"latest_billing,omitempty"`
	Profit          decimal.Decimal `json:"profit"`
	ProfitFormatted string          `json:"profit_formatted"`
}

// Summary returns the totals for today. Profit is the latest gross billing
// minus the total of active accounts, or zero when no billing exists.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardDTO, error) {
	today := s.clock.Today()
	totals, err := s.accounts.Totals(ctx, today)
	if err != nil {
		return nil, err
	}

	dto := &DashboardDTO{
		Date:     today.Format(payables.DateLayout),
		Total:    newBucket(totals.TotalAmount, totals.TotalCount),
		OnTime:   newBucket(totals.OnTimeAmount, totals.OnTimeCount),
		DueToday: newBucket(totals.DueTodayAmount, totals.DueTodayCount),
		Overdue:  newBucket(totals.OverdueAmount, totals.OverdueCount),
	}

	profit := decimal.Zero
	latest, err := s.billings.FindLatest(ctx)
	switch {
	case errors.Is(err, shared.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		b := ToBillingDTO(latest)
		dto.LatestBilling = &b
		profit = latest.Gross.Sub(totals.TotalAmount)
	}
	dto.Profit = profit
	dto.ProfitFormatted = payables.FormatBRL(profit)

	s.logger.Debug("Dashboard computed",
		zap.String("date", dto.Date),
		zap.Int64("accounts", totals.TotalCount),
	)
	return dto, nil
}
