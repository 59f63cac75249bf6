package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/usermanager/user-management/internal/core/domain"
	"github.com/usermanager/user-management/internal/core/ports"
)

type userService struct {
	repo       ports.UserRepository
	bcryptCost int
	now        func() time.Time
	log        zerolog.Logger
}

// NewUserService returns a UserService implementation.
func NewUserService(repo ports.UserRepository, bcryptCost int, log zerolog.Logger) ports.UserService {
	return &userService{
		repo:       repo,
		bcryptCost: bcryptCost,
		now:        time.Now,
		log:        log,
	}
}

// ListUsers returns every account, or domain.ErrNoUsers when there are none.
func (s *userService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return nil, domain.ErrNoUsers
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateUser replaces the profile fields of an account. Empty Email and Role
// keep the stored values; an empty Password keeps the stored hash.
func (s *userService) UpdateUser(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Role != "" && !domain.IsValidRole(in.Role) {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if email := domain.NormalizeEmail(in.Email); email != "" && email != existing.Email {
		other, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil && other != nil && other.ID != existing.ID:
			return nil, domain.ErrUserExists
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return nil, fmt.Errorf("update user: lookup email: %w", err)
		}
		existing.Email = email
	}
	if in.Role != "" {
		existing.Role = in.Role
	}
	existing.Name = in.Name
	existing.City = in.City

	if in.Password != "" {
		hash, err := hashPassword(in.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		existing.PasswordHash = hash
	}
	existing.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.log.Info().
		Str("user_id", updated.ID).
		Bool("password_changed", in.Password != "").
		Msg("user updated")
	return updated, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// Profile reloads the caller's account so the response reflects the store,
// not the snapshot bound at authentication time.
func (s *userService) Profile(ctx context.Context, identity domain.RequestIdentity) (*domain.User, error) {
	if identity.IsAnonymous() {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.repo.FindByEmail(ctx, identity.Email())
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return u, nil
}
