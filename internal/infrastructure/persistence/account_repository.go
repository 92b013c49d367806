package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/contaspagar/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountSortFields contains allowed sort fields for accounts
var AccountSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"due_date":   true,
	"amount":     true,
	"status":     true,
	"recurrence": true,
}

// GormAccountRepository implements payables.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// withGroupName selects accounts joined with their group's name
func (r *GormAccountRepository) withGroupName(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Select("accounts.*, account_groups.name AS group_name").
		Joins("LEFT JOIN account_groups ON account_groups.id = accounts.group_id")
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Account, error) {
	var model models.AccountModel
	if err := r.withGroupName(ctx).Where("accounts.id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payables.ErrAccountNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds accounts matching the filter with pagination
func (r *GormAccountRepository) FindAll(ctx context.Context, filter payables.AccountFilter) ([]payables.Account, int64, error) {
	var total int64
	countQuery := r.applyFilter(r.db.WithContext(ctx).Model(&models.AccountModel{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, AccountSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.AccountModel
	err := r.applyFilter(r.withGroupName(ctx), filter).
		Order("accounts." + sortField + " " + sortOrder).
		Order("accounts.id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toAccounts(rows), total, nil
}

func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter payables.AccountFilter) *gorm.DB {
	name := filter.Name
	if name == "" {
		name = filter.Search
	}
	if folded := payables.FoldForSearch(name); folded != "" {
		query = query.Where(`accounts.search_name LIKE ? ESCAPE '\'`, likeContains(folded))
	}
	if filter.GroupID != nil {
		query = query.Where("accounts.group_id = ?", *filter.GroupID)
	}
	if filter.Status != "" {
		query = applyStatusFilter(query, filter.Status, filter.Today)
	}
	if filter.Recurrence != "" {
		query = query.Where("accounts.recurrence = ?", filter.Recurrence)
	}
	if filter.Kind != "" {
		query = query.Where("accounts.kind = ?", filter.Kind)
	}
	if filter.Paid != nil {
		query = query.Where("accounts.paid = ?", *filter.Paid)
	}
	if filter.Active != nil {
		query = query.Where("accounts.active = ?", *filter.Active)
	}
	return query
}

// applyStatusFilter buckets unpaid accounts by due date the same way Totals does,
// so a scan that has not run yet does not hide overdue accounts. The lead window
// is per account, so due_soon still reads the cached status and on_time excludes it.
func applyStatusFilter(query *gorm.DB, status payables.AccountStatus, today time.Time) *gorm.DB {
	if today.IsZero() {
		return query.Where("accounts.status = ?", status)
	}
	today = payables.NormalizeDate(today)
	switch status {
	case payables.StatusOverdue:
		return query.Where("accounts.paid = ? AND accounts.due_date < ?", false, today)
	case payables.StatusDueToday:
		return query.Where("accounts.paid = ? AND accounts.due_date = ?", false, today)
	case payables.StatusDueSoon:
		return query.Where("accounts.paid = ? AND accounts.due_date > ? AND accounts.status = ?", false, today, status)
	case payables.StatusOnTime:
		return query.Where("accounts.paid = ? AND accounts.due_date > ? AND accounts.status <> ?", false, today, payables.StatusDueSoon)
	default:
		return query.Where("accounts.status = ?", status)
	}
}

// FindForStatusScan returns active unpaid accounts ordered by due date
func (r *GormAccountRepository) FindForStatusScan(ctx context.Context) ([]payables.Account, error) {
	var rows []models.AccountModel
	err := r.withGroupName(ctx).
		Where("accounts.active = ? AND accounts.paid = ?", true, false).
		Order("accounts.due_date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toAccounts(rows), nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *payables.Account) error {
	return r.db.WithContext(ctx).Save(models.AccountModelFromDomain(account)).Error
}

// UpdateStatus writes only the status and update timestamp
func (r *GormAccountRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status payables.AccountStatus, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return payables.ErrAccountNotFound
	}
	return nil
}

// SavePayment inserts the history entry and saves the rolled-forward account
// in one transaction, so a payment is never recorded without its roll-forward.
// The update only applies while the stored account is still the unpaid, active
// occurrence the history entry was taken from; otherwise the transaction rolls
// back with shared.ErrConcurrencyConflict.
func (r *GormAccountRepository) SavePayment(ctx context.Context, account *payables.Account, history *payables.PaymentHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.PaymentHistoryModelFromDomain(history)).Error; err != nil {
			return err
		}
		result := tx.Model(&models.AccountModel{}).
			Where("id = ? AND due_date = ? AND paid = ? AND active = ?", account.ID, history.DueDate, false, true).
			Select("*").
			Omit("id", "created_at", "group_name").
			Updates(models.AccountModelFromDomain(account))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		var count int64
		if err := tx.Model(&models.AccountModel{}).Where("id = ?", account.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return payables.ErrAccountNotFound
		}
		return shared.ErrConcurrencyConflict
	})
}

// Delete deletes an account. Its payment history is kept.
func (r *GormAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AccountModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return payables.ErrAccountNotFound
	}
	return nil
}

// CountByGroup counts accounts referencing a group
func (r *GormAccountRepository) CountByGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

type accountTotalsRow struct {
	TotalAmount    decimal.NullDecimal
	TotalCount     int64
	OnTimeAmount   decimal.NullDecimal
	OnTimeCount    int64
	DueTodayAmount decimal.NullDecimal
	DueTodayCount  int64
	OverdueAmount  decimal.NullDecimal
	OverdueCount   int64
}

// Totals sums active unpaid accounts by due-date bucket relative to today
func (r *GormAccountRepository) Totals(ctx context.Context, today time.Time) (*payables.AccountTotals, error) {
	today = payables.NormalizeDate(today)

	var row accountTotalsRow
	err := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Select(`SUM(amount) AS total_amount,
			COUNT(*) AS total_count,
			SUM(CASE WHEN due_date > @today THEN amount END) AS on_time_amount,
			COALESCE(SUM(CASE WHEN due_date > @today THEN 1 ELSE 0 END), 0) AS on_time_count,
			SUM(CASE WHEN due_date = @today THEN amount END) AS due_today_amount,
			COALESCE(SUM(CASE WHEN due_date = @today THEN 1 ELSE 0 END), 0) AS due_today_count,
			SUM(CASE WHEN due_date < @today THEN amount END) AS overdue_amount,
			COALESCE(SUM(CASE WHEN due_date < @today THEN 1 ELSE 0 END), 0) AS overdue_count`,
			map[string]any{"today": today}).
		Where("active = ? AND paid = ?", true, false).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &payables.AccountTotals{
		TotalAmount:    money(row.TotalAmount),
		TotalCount:     row.TotalCount,
		OnTimeAmount:   money(row.OnTimeAmount),
		OnTimeCount:    row.OnTimeCount,
		DueTodayAmount: money(row.DueTodayAmount),
		DueTodayCount:  row.DueTodayCount,
		OverdueAmount:  money(row.OverdueAmount),
		OverdueCount:   row.OverdueCount,
	}, nil
}

func money(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal.Round(payables.MoneyPlaces)
}

func toAccounts(rows []models.AccountModel) []payables.Account {
	accounts := make([]payables.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, *rows[i].ToDomain())
	}
	return accounts
}

var _ payables.AccountRepository = (*GormAccountRepository)(nil)
