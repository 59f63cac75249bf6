package ports

import (
	"context"

	"github.com/usermanager/user-management/internal/core/domain"
)

// UpdateUserInput carries a full profile replacement. An empty Password keeps
// the stored hash.
type UpdateUserInput struct {
	Email    string
	Name     string
	City     string
	Role     string
	Password string
}

// UserService defines administrative and self-service operations on accounts.
type UserService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	// Profile returns the stored account of the caller identified by identity.
	Profile(ctx context.Context, identity domain.RequestIdentity) (*domain.User, error)
}
