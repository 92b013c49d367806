package payables

import (
	"context"
	"errors"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountService manages payable accounts
type AccountService struct {
	accounts payables.AccountRepository
	groups   payables.GroupRepository
	clock    payables.Clock
	logger   *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	accounts payables.AccountRepository,
	groups payables.GroupRepository,
	clock payables.Clock,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		groups:   groups,
		clock:    clock,
		logger:   logger,
	}
}

// AccountInput contains the editable fields of an account
type AccountInput struct {
	Name                 string
	GroupID              uuid.UUID
	Kind                 payables.AccountKind
	Recurrence           payables.Recurrence
	Amount               decimal.Decimal
	DueDate              time.Time
	AlertLeadDays        int
	ConfirmationPhone    string
	AlertPhone           string
	ConfirmationTemplate string
	Details              payables.AccountDetails
}

func (in AccountInput) params() payables.AccountParams {
	return payables.AccountParams{
		Name:                 in.Name,
		GroupID:              in.GroupID,
		Kind:                 in.Kind,
		Recurrence:           in.Recurrence,
		Amount:               in.Amount,
		DueDate:              in.DueDate,
		AlertLeadDays:        in.AlertLeadDays,
		ConfirmationPhone:    in.ConfirmationPhone,
		AlertPhone:           in.AlertPhone,
		ConfirmationTemplate: in.ConfirmationTemplate,
		Details:              in.Details,
	}
}

// Create validates and stores a new account
func (s *AccountService) Create(ctx context.Context, in AccountInput) (*AccountDTO, error) {
	group, err := s.lookupGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	account, err := payables.NewAccount(in.params(), s.clock.Today())
	if err != nil {
		return nil, err
	}
	account.GroupName = group.Name

	if err := s.accounts.Save(ctx, account); err != nil {
		s.logger.Error("Failed to save account", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Account created",
		zap.String("account_id", account.ID.String()),
		zap.String("name", account.Name),
		zap.String("due_date", account.DueDate.Format(payables.DateLayout)),
	)
	dto := ToAccountDTO(account)
	return &dto, nil
}

// GetByID returns one account
func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*AccountDTO, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToAccountDTO(account)
	return &dto, nil
}

// List returns a filtered page of accounts
func (s *AccountService) List(ctx context.Context, filter payables.AccountFilter) (*shared.Paginated[AccountDTO], error) {
	filter.Filter = filter.Filter.Normalize()
	filter.Today = s.clock.Today()
	accounts, total, err := s.accounts.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]AccountDTO, 0, len(accounts))
	for i := range accounts {
		items = append(items, ToAccountDTO(&accounts[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update replaces the editable fields of an account
func (s *AccountService) Update(ctx context.Context, id uuid.UUID, in AccountInput) (*AccountDTO, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	group, err := s.lookupGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	if err := account.Update(in.params(), s.clock.Today()); err != nil {
		return nil, err
	}
	account.GroupName = group.Name

	if err := s.accounts.Save(ctx, account); err != nil {
		s.logger.Error("Failed to update account", zap.String("account_id", id.String()), zap.Error(err))
		return nil, err
	}
	dto := ToAccountDTO(account)
	return &dto, nil
}

// Delete removes an account. Its payment history is kept.
func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Account deleted", zap.String("account_id", id.String()))
	return nil
}

// FieldGroups returns the account form layout
func (s *AccountService) FieldGroups() []payables.FieldGroup {
	return payables.AccountFieldGroups()
}

func (s *AccountService) lookupGroup(ctx context.Context, id uuid.UUID) (*payables.Group, error) {
	if id == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithField("group_id", "is required")
	}
	group, err := s.groups.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrInvalidInput.WithField("group_id", "does not exist")
	}
	return group, err
}
