package interfaces

import (
	"context"

	"writingway/internal/models"

	"github.com/google/uuid"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// CreateUser inserts the user and fills ID/CreatedAt/UpdatedAt.
	// Returns models.ErrUserAlreadyExists or models.ErrEmailAlreadyExists on duplicates.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername returns models.ErrUserNotFound if there is no such user.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByEmail returns models.ErrUserNotFound if there is no such user.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns models.ErrUserNotFound if there is no such user.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// UpdateProfile applies non-nil fields and returns the updated user.
	UpdateProfile(ctx context.Context, id uuid.UUID, upd models.UserProfileUpdate) (*models.User, error)

	// SetActive enables or disables the account.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
