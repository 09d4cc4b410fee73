package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/soundloop/soundloop-api/internal/domain"
)

// UserRepository is the identity directory. Create inserts the user and its
// empty profile row in one transaction; the email uniqueness constraint is
// the final defense against concurrent signups with the same address.
type UserRepository interface {
	Create(ctx context.Context, username, email string, passwordHash []byte) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindOrCreateByGoogleID(ctx context.Context, profile domain.FederatedProfile) (*domain.User, error)
	SetEmailVerified(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error
	UpdateAvatarURL(ctx context.Context, id uuid.UUID, url string) error
}
