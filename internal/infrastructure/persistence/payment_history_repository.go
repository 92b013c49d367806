package persistence

import (
	"context"
	"errors"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentHistorySortFields contains allowed sort fields for payment history
var PaymentHistorySortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"payment_date": true,
	"due_date":     true,
	"amount":       true,
	"days_late":    true,
	"account_name": true,
}

// GormPaymentHistoryRepository implements payables.PaymentHistoryRepository using GORM.
// Writes happen through GormAccountRepository.SavePayment.
type GormPaymentHistoryRepository struct {
	db *gorm.DB
}

// NewGormPaymentHistoryRepository creates a new GormPaymentHistoryRepository
func NewGormPaymentHistoryRepository(db *gorm.DB) *GormPaymentHistoryRepository {
	return &GormPaymentHistoryRepository{db: db}
}

// FindByID finds a history entry by its ID
func (r *GormPaymentHistoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.PaymentHistory, error) {
	var model models.PaymentHistoryModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payables.ErrHistoryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists history entries, newest payment first by default
func (r *GormPaymentHistoryRepository) FindAll(ctx context.Context, filter payables.PaymentHistoryFilter) ([]payables.PaymentHistory, int64, error) {
	var total int64
	if err := r.applyFilter(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, PaymentHistorySortFields, "payment_date")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.PaymentHistoryModel
	err := r.applyFilter(ctx, filter).
		Order(sortField + " " + sortOrder).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	entries := make([]payables.PaymentHistory, 0, len(rows))
	for i := range rows {
		entries = append(entries, *rows[i].ToDomain())
	}
	return entries, total, nil
}

func (r *GormPaymentHistoryRepository) applyFilter(ctx context.Context, filter payables.PaymentHistoryFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.PaymentHistoryModel{})
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.From != nil {
		query = query.Where("payment_date >= ?", payables.NormalizeDate(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("payment_date <= ?", payables.NormalizeDate(*filter.To))
	}
	return query
}

// CountByAccount counts history entries for an account
func (r *GormPaymentHistoryRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentHistoryModel{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}

var _ payables.PaymentHistoryRepository = (*GormPaymentHistoryRepository)(nil)
