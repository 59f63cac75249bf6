package ports

import (
	"context"

	"github.com/usermanager/user-management/internal/core/domain"
)

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	City     string
	Role     string
}

// AuthResult is returned by Login and Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	Role         string
	// ExpiresIn is the human-readable access token lifetime, e.g. "24Hrs".
	ExpiresIn string
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
}
