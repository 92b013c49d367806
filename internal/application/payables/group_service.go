package payables

import (
	"context"
	"errors"
	"strconv"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GroupService manages account groups
type GroupService struct {
	groups   payables.GroupRepository
	accounts payables.AccountRepository
	logger   *zap.Logger
}

// NewGroupService creates a new group service
func NewGroupService(groups payables.GroupRepository, accounts payables.AccountRepository, logger *zap.Logger) *GroupService {
	return &GroupService{
		groups:   groups,
		accounts: accounts,
		logger:   logger,
	}
}

// GroupInput contains the editable fields of a group
type GroupInput struct {
	Name        string
	Description string
	Active      *bool
}

// Create stores a new group with a unique name
func (s *GroupService) Create(ctx context.Context, in GroupInput) (*GroupDTO, error) {
	group, err := payables.NewGroup(in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	if in.Active != nil {
		group.Active = *in.Active
	}
	if err := s.ensureNameFree(ctx, group.Name, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.groups.Save(ctx, group); err != nil {
		s.logger.Error("Failed to save group", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Group created",
		zap.String("group_id", group.ID.String()),
		zap.String("name", group.Name),
	)
	dto := ToGroupDTO(group)
	return &dto, nil
}

// GetByID returns one group
func (s *GroupService) GetByID(ctx context.Context, id uuid.UUID) (*GroupDTO, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToGroupDTO(group)
	return &dto, nil
}

// List returns a page of groups
func (s *GroupService) List(ctx context.Context, filter payables.GroupFilter) (*shared.Paginated[GroupDTO], error) {
	filter.Filter = filter.Filter.Normalize()
	groups, total, err := s.groups.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]GroupDTO, 0, len(groups))
	for i := range groups {
		items = append(items, ToGroupDTO(&groups[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update renames or toggles a group
func (s *GroupService) Update(ctx context.Context, id uuid.UUID, in GroupInput) (*GroupDTO, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	active := group.Active
	if in.Active != nil {
		active = *in.Active
	}
	if err := group.Update(in.Name, in.Description, active); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, group.Name, group.ID); err != nil {
		return nil, err
	}
	if err := s.groups.Save(ctx, group); err != nil {
		s.logger.Error("Failed to update group", zap.String("group_id", id.String()), zap.Error(err))
		return nil, err
	}
	dto := ToGroupDTO(group)
	return &dto, nil
}

// Delete removes a group that no account references
func (s *GroupService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.groups.FindByID(ctx, id); err != nil {
		return err
	}
	count, err := s.accounts.CountByGroup(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Warn("Refusing to delete group with accounts",
			zap.String("group_id", id.String()),
			zap.Int64("accounts", count),
		)
		return payables.ErrGroupHasAccounts.WithField("accounts", strconv.FormatInt(count, 10))
	}
	// The repository re-checks through the foreign key in case an account was added meanwhile.
	if err := s.groups.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Group deleted", zap.String("group_id", id.String()))
	return nil
}

func (s *GroupService) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.groups.FindByName(ctx, name)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return payables.ErrGroupNameTaken.WithField("name", "already in use")
	}
	return nil
}
