package interfaces

import (
	"context"

	"writingway/internal/models"

	"github.com/google/uuid"
)

// TokenRepository stores issued token ids so that they can be revoked before expiry.
type TokenRepository interface {
	// SetToken stores Access & Refresh UUIDs mapped to the user with the token TTLs.
	SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error

	// DeleteTokens removes the given token UUIDs. Returns the number of keys deleted.
	DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error)

	// GetUserIDByAccessUUID returns models.ErrTokenNotFound if the token is unknown or expired.
	GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error)

	// GetUserIDByRefreshUUID returns models.ErrTokenNotFound if the token is unknown or expired.
	GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error)

	// DeleteTokensByUserID revokes every token of the user.
	DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}
