package ports

import (
	"context"

	"github.com/usermanager/user-management/internal/core/domain"
)

// UserLookup resolves a stored user by login email. It is the read side the
// identity gate depends on.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// UserRepository defines persistence operations for user accounts.
// Implementations return domain.ErrUserNotFound for missing rows and
// domain.ErrUserExists when the email is already taken.
type UserRepository interface {
	UserLookup
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
