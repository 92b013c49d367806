package payables

import (
	"context"
	"errors"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BillingService manages monthly billing records
type BillingService struct {
	billings payables.BillingRepository
	logger   *zap.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(billings payables.BillingRepository, logger *zap.Logger) *BillingService {
	return &BillingService{
		billings: billings,
		logger:   logger,
	}
}

// Create stores the billing of a month that has none yet
func (s *BillingService) Create(ctx context.Context, p payables.BillingParams) (*BillingDTO, error) {
	billing, err := payables.NewBilling(p)
	if err != nil {
		return nil, err
	}
	if err := s.ensureMonthFree(ctx, billing); err != nil {
		return nil, err
	}
	if err := s.billings.Save(ctx, billing); err != nil {
		s.logger.Error("Failed to save billing", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Billing created",
		zap.String("billing_id", billing.ID.String()),
		zap.String("reference_month", billing.ReferenceMonth.Format("2006-01")),
		zap.String("gross", billing.Gross.StringFixed(payables.MoneyPlaces)),
	)
	dto := ToBillingDTO(billing)
	return &dto, nil
}

// GetByID returns one billing record
func (s *BillingService) GetByID(ctx context.Context, id uuid.UUID) (*BillingDTO, error) {
	billing, err := s.billings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToBillingDTO(billing)
	return &dto, nil
}

// Latest returns the record with the most recent reference month
func (s *BillingService) Latest(ctx context.Context) (*BillingDTO, error) {
	billing, err := s.billings.FindLatest(ctx)
	if err != nil {
		return nil, err
	}
	dto := ToBillingDTO(billing)
	return &dto, nil
}

// List returns a page of billing records
func (s *BillingService) List(ctx context.Context, filter payables.BillingFilter) (*shared.Paginated[BillingDTO], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "reference_month"
	}
	filter.Filter = filter.Filter.Normalize()
	billings, total, err := s.billings.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]BillingDTO, 0, len(billings))
	for i := range billings {
		items = append(items, ToBillingDTO(&billings[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update replaces the figures of a billing record
func (s *BillingService) Update(ctx context.Context, id uuid.UUID, p payables.BillingParams) (*BillingDTO, error) {
	billing, err := s.billings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := billing.Update(p); err != nil {
		return nil, err
	}
	if err := s.ensureMonthFree(ctx, billing); err != nil {
		return nil, err
	}
	if err := s.billings.Save(ctx, billing); err != nil {
		s.logger.Error("Failed to update billing", zap.String("billing_id", id.String()), zap.Error(err))
		return nil, err
	}
	dto := ToBillingDTO(billing)
	return &dto, nil
}

// Delete removes a billing record
func (s *BillingService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.billings.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Billing deleted", zap.String("billing_id", id.String()))
	return nil
}

func (s *BillingService) ensureMonthFree(ctx context.Context, billing *payables.Billing) error {
	existing, err := s.billings.FindByMonth(ctx, billing.ReferenceMonth)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != billing.ID {
		return payables.ErrBillingMonthUsed.WithField("reference_month", "already has a billing record")
	}
	return nil
}
