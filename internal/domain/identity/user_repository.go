package identity

import (
	"context"

	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername matches the lower-cased username
	FindByUsername(ctx context.Context, username string) (*User, error)

	FindAll(ctx context.Context, filter UserFilter) ([]User, int64, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save inserts or updates the user
	Save(ctx context.Context, user *User) error

	Delete(ctx context.Context, id uuid.UUID) error

	Count(ctx context.Context) (int64, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	shared.Filter

	// Status narrows to one status when set
	Status *UserStatus
}

// ErrUserNotFound is returned when no user matches
var ErrUserNotFound = shared.NewDomainError("NOT_FOUND", "User not found")
