package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GroupSortFields contains allowed sort fields for account groups
var GroupSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"active":     true,
}

// GormGroupRepository implements payables.GroupRepository using GORM
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GormGroupRepository
func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// FindByID finds a group by its ID
func (r *GormGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Group, error) {
	var model models.AccountGroupModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payables.ErrGroupNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a group by name, ignoring case
func (r *GormGroupRepository) FindByName(ctx context.Context, name string) (*payables.Group, error) {
	var model models.AccountGroupModel
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payables.ErrGroupNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds groups matching the filter with pagination
func (r *GormGroupRepository) FindAll(ctx context.Context, filter payables.GroupFilter) ([]payables.Group, int64, error) {
	var total int64
	if err := r.applyFilter(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, GroupSortFields, "name")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.AccountGroupModel
	err := r.applyFilter(ctx, filter).
		Order(sortField + " " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	groups := make([]payables.Group, 0, len(rows))
	for i := range rows {
		groups = append(groups, *rows[i].ToDomain())
	}
	return groups, total, nil
}

func (r *GormGroupRepository) applyFilter(ctx context.Context, filter payables.GroupFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.AccountGroupModel{})
	name := filter.Name
	if name == "" {
		name = filter.Search
	}
	if name = strings.TrimSpace(name); name != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likeContains(strings.ToLower(name)))
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	return query
}

// Save creates or updates a group
func (r *GormGroupRepository) Save(ctx context.Context, group *payables.Group) error {
	model := &models.AccountGroupModel{}
	model.FromDomain(group)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return payables.ErrGroupNameTaken.WithField("name", "already in use")
		}
		return err
	}
	return nil
}

// Delete removes a group. The account count and the delete share a
// transaction; the foreign key on accounts.group_id backs this up in postgres.
func (r *GormGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.AccountModel{}).Where("group_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return payables.ErrGroupHasAccounts
		}
		result := tx.Delete(&models.AccountGroupModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return payables.ErrGroupNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return payables.ErrGroupHasAccounts
	}
	return err
}

var _ payables.GroupRepository = (*GormGroupRepository)(nil)
