package identity

import (
	"context"
	"strings"

	"github.com/contaspagar/backend/internal/domain/identity"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/contaspagar/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles user management operations
type UserService struct {
	userRepo  identity.UserRepository
	blacklist auth.TokenBlacklist
	jwt       *auth.JWTService
	logger    *zap.Logger
}

// NewUserService creates a new user service. A nil blacklist leaves tokens of
// deactivated users valid until they expire.
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	jwt *auth.JWTService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		blacklist: blacklist,
		jwt:       jwt,
		logger:    logger,
	}
}

// Create creates a new active user
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	s.logger.Info("Creating new user", zap.String("username", input.Username))

	user, err := identity.NewUser(input.Username, input.Password)
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(input.Email); err != nil {
		return nil, err
	}
	if err := user.SetName(input.FirstName, input.LastName); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, user.Username, user.Email); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))
	dto := ToUserDTO(user)
	return &dto, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, filter identity.UserFilter) (*shared.Paginated[UserDTO], error) {
	filter.Filter = filter.Filter.Normalize()
	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]UserDTO, 0, len(users))
	for i := range users {
		items = append(items, ToUserDTO(&users[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update changes the profile fields that are set in input
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var newUsername, newEmail string
	if input.Username != nil && !strings.EqualFold(strings.TrimSpace(*input.Username), user.Username) {
		if err := user.SetUsername(*input.Username); err != nil {
			return nil, err
		}
		newUsername = user.Username
	}
	if input.Email != nil && !strings.EqualFold(strings.TrimSpace(*input.Email), user.Email) {
		if err := user.SetEmail(*input.Email); err != nil {
			return nil, err
		}
		newEmail = user.Email
	}
	if input.FirstName != nil || input.LastName != nil {
		first, last := user.FirstName, user.LastName
		if input.FirstName != nil {
			first = *input.FirstName
		}
		if input.LastName != nil {
			last = *input.LastName
		}
		if err := user.SetName(first, last); err != nil {
			return nil, err
		}
	}
	if err := s.ensureUnique(ctx, newUsername, newEmail); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to update user", zap.String("user_id", id.String()), zap.Error(err))
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// Delete removes a user. Users cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	if id == actorID {
		return shared.ErrForbidden.WithField("id", "cannot delete your own user")
	}
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.revokeAll(ctx, id)
	s.logger.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

// Activate re-enables a user
func (s *UserService) Activate(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	return s.changeStatus(ctx, id, (*identity.User).Activate)
}

// Deactivate blocks a user and revokes their tokens
func (s *UserService) Deactivate(ctx context.Context, id, actorID uuid.UUID) (*UserDTO, error) {
	if id == actorID {
		return nil, shared.ErrForbidden.WithField("id", "cannot deactivate your own user")
	}
	dto, err := s.changeStatus(ctx, id, (*identity.User).Deactivate)
	if err != nil {
		return nil, err
	}
	s.revokeAll(ctx, id)
	return dto, nil
}

// ResetPassword sets a new password without the current one
func (s *UserService) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	s.revokeAll(ctx, id)
	s.logger.Info("User password reset", zap.String("user_id", id.String()))
	return nil
}

func (s *UserService) changeStatus(ctx context.Context, id uuid.UUID, apply func(*identity.User) error) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User status changed",
		zap.String("user_id", id.String()),
		zap.String("status", string(user.Status)))
	dto := ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) ensureUnique(ctx context.Context, username, email string) error {
	if username != "" {
		exists, err := s.userRepo.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithField("username", "already in use")
		}
	}
	if email != "" {
		exists, err := s.userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithField("email", "already in use")
		}
	}
	return nil
}

func (s *UserService) revokeAll(ctx context.Context, id uuid.UUID) {
	if s.blacklist == nil || s.jwt == nil {
		return
	}
	if err := s.blacklist.InvalidateUser(ctx, id.String(), s.jwt.GetRefreshTokenExpiration()); err != nil {
		s.logger.Warn("Failed to revoke user tokens", zap.String("user_id", id.String()), zap.Error(err))
	}
}
