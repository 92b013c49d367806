package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BillingSortFields contains allowed sort fields for billings
var BillingSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"reference_month": true,
	"gross":           true,
}

// GormBillingRepository implements payables.BillingRepository using GORM
type GormBillingRepository struct {
	db *gorm.DB
}

// NewGormBillingRepository creates a new GormBillingRepository
func NewGormBillingRepository(db *gorm.DB) *GormBillingRepository {
	return &GormBillingRepository{db: db}
}

func (r *GormBillingRepository) findOne(query *gorm.DB) (*payables.Billing, error) {
	var model models.BillingModel
	if err := query.Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payables.ErrBillingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a billing record by its ID
func (r *GormBillingRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Billing, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByMonth finds the record for the month containing month
func (r *GormBillingRepository) FindByMonth(ctx context.Context, month time.Time) (*payables.Billing, error) {
	return r.findOne(r.db.WithContext(ctx).Where("reference_month = ?", payables.MonthStart(month)))
}

// FindLatest returns the record with the most recent reference month
func (r *GormBillingRepository) FindLatest(ctx context.Context) (*payables.Billing, error) {
	return r.findOne(r.db.WithContext(ctx).Order("reference_month DESC"))
}

// FindAll finds billing records matching the filter with pagination
func (r *GormBillingRepository) FindAll(ctx context.Context, filter payables.BillingFilter) ([]payables.Billing, int64, error) {
	var total int64
	if err := r.applyFilter(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, BillingSortFields, "reference_month")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.BillingModel
	err := r.applyFilter(ctx, filter).
		Order(sortField + " " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	billings := make([]payables.Billing, 0, len(rows))
	for i := range rows {
		billings = append(billings, *rows[i].ToDomain())
	}
	return billings, total, nil
}

func (r *GormBillingRepository) applyFilter(ctx context.Context, filter payables.BillingFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.BillingModel{})
	if filter.From != nil {
		query = query.Where("reference_month >= ?", payables.MonthStart(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("reference_month <= ?", payables.MonthStart(*filter.To))
	}
	return query
}

// Save creates or updates a billing record
func (r *GormBillingRepository) Save(ctx context.Context, billing *payables.Billing) error {
	if err := r.db.WithContext(ctx).Save(models.BillingModelFromDomain(billing)).Error; err != nil {
		if isUniqueViolation(err) {
			return payables.ErrBillingMonthUsed.WithField("reference_month", "already has a billing record")
		}
		return err
	}
	return nil
}

// Delete deletes a billing record
func (r *GormBillingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BillingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return payables.ErrBillingNotFound
	}
	return nil
}

var _ payables.BillingRepository = (*GormBillingRepository)(nil)
