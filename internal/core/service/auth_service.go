package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/usermanager/user-management/internal/core/domain"
	"github.com/usermanager/user-management/internal/core/ports"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// AuthConfig holds token lifetimes and the bcrypt work factor.
type AuthConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// AuthService implements registration, login and token refresh.
type AuthService struct {
	repo      ports.UserRepository
	codec     ports.TokenCodec
	audit     ports.AuditRecorder
	cfg       AuthConfig
	dummyHash string
	now       func() time.Time
	log       zerolog.Logger
}

func NewAuthService(
	repo ports.UserRepository,
	codec ports.TokenCodec,
	audit ports.AuditRecorder,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if audit == nil {
		audit = ports.NopAuditRecorder{}
	}

	// Compared against when the account does not exist, so a miss costs
	// about as much as a wrong password.
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.BcryptCost)
	if err != nil {
		log.Warn().Err(err).Msg("failed to prepare dummy password hash")
	}

	return &AuthService{
		repo:      repo,
		codec:     codec,
		audit:     audit,
		cfg:       cfg,
		dummyHash: string(dummy),
		now:       time.Now,
		log:       log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" || !domain.IsValidRole(in.Role) {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		s.record(domain.AuthEventRegister, email, false, "email taken")
		return nil, domain.ErrUserExists
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := hashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         in.Name,
		City:         in.City,
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.record(domain.AuthEventRegister, email, false, "email taken")
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.record(domain.AuthEventRegister, email, true, "")
	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = comparePassword(s.dummyHash, password)
			s.record(domain.AuthEventLogin, email, false, "unknown email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: lookup email: %w", err)
	}

	if err := comparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.record(domain.AuthEventLogin, email, false, "bad password")
		}
		return nil, err
	}

	access, err := s.issueAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Issue(user.Email, map[string]any{
		domain.ClaimKind: domain.TokenKindRefresh,
	}, s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("login: issue refresh token: %w", err)
	}

	s.record(domain.AuthEventLogin, email, true, "")
	return &ports.AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         user.Role,
		ExpiresIn:    formatLifetime(s.cfg.AccessTTL),
		User:         user,
	}, nil
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token itself is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResult, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidRefreshToken
	}

	parsed, err := s.codec.Parse(refreshToken)
	if err != nil {
		s.record(domain.AuthEventRefresh, "", false, err.Error())
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRefreshToken, err)
	}
	if parsed.Kind != domain.TokenKindRefresh {
		s.record(domain.AuthEventRefresh, parsed.Subject, false, "wrong token kind")
		return nil, fmt.Errorf("%w: not a refresh token", domain.ErrInvalidRefreshToken)
	}

	user, err := s.repo.FindByEmail(ctx, parsed.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.record(domain.AuthEventRefresh, parsed.Subject, false, "unknown subject")
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRefreshToken, err)
		}
		return nil, fmt.Errorf("refresh: lookup subject: %w", err)
	}

	if !s.codec.IsValid(refreshToken, user.Email) {
		s.record(domain.AuthEventRefresh, user.Email, false, "subject mismatch")
		return nil, domain.ErrInvalidRefreshToken
	}

	access, err := s.issueAccess(user)
	if err != nil {
		return nil, err
	}

	s.record(domain.AuthEventRefresh, user.Email, true, "")
	return &ports.AuthResult{
		AccessToken:  access,
		RefreshToken: refreshToken,
		Role:         user.Role,
		ExpiresIn:    formatLifetime(s.cfg.AccessTTL),
		User:         user,
	}, nil
}

func (s *AuthService) issueAccess(user *domain.User) (string, error) {
	tok, err := s.codec.Issue(user.Email, map[string]any{
		domain.ClaimKind: domain.TokenKindAccess,
		domain.ClaimRole: user.Role,
	}, s.cfg.AccessTTL)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return tok, nil
}

func (s *AuthService) record(typ domain.AuthEventType, email string, success bool, reason string) {
	s.audit.Record(domain.AuthEvent{
		Type:    typ,
		Email:   email,
		Success: success,
		Reason:  reason,
		At:      s.now().UTC(),
	})
}

// formatLifetime renders a token lifetime the way clients expect it,
// e.g. 24h -> "24Hrs", 30m -> "30Mins".
func formatLifetime(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dHrs", int(d/time.Hour))
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dMins", int(d/time.Minute))
	default:
		return d.String()
	}
}
