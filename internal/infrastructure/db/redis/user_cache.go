package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/usermanager/user-management/internal/api/metrics"
	"github.com/usermanager/user-management/internal/core/domain"
	"github.com/usermanager/user-management/internal/core/ports"
)

const defaultUserTTL = 5 * time.Minute

// UserCache is a read-through cache in front of a ports.UserRepository.
// Lookups by email are served from Redis when present; writes go to the
// wrapped repository and evict the cached entry.
// Key format: user:email:<email>
//
// Redis failures never fail a request: they are logged and the call falls
// through to the repository.
type UserCache struct {
	ports.UserRepository
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewUserCache wraps repo with a Redis cache. A non-positive ttl uses
// defaultUserTTL.
func NewUserCache(repo ports.UserRepository, client *redis.Client, ttl time.Duration, log zerolog.Logger) *UserCache {
	if ttl <= 0 {
		ttl = defaultUserTTL
	}
	return &UserCache{UserRepository: repo, client: client, ttl: ttl, log: log}
}

// cachedUser keeps the password hash, which domain.User never serialises.
type cachedUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	City         string    `json:"city"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *UserCache) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	key := c.key(email)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cu cachedUser
		if jerr := json.Unmarshal(raw, &cu); jerr == nil {
			metrics.UserCacheLookupsTotal.WithLabelValues("hit").Inc()
			return cu.toDomain(), nil
		}
		c.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
		c.evict(ctx, email)
		metrics.UserCacheLookupsTotal.WithLabelValues("miss").Inc()
	case errors.Is(err, redis.Nil):
		metrics.UserCacheLookupsTotal.WithLabelValues("miss").Inc()
	default:
		metrics.UserCacheLookupsTotal.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Str("key", key).Msg("user cache read failed")
	}

	u, err := c.UserRepository.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	c.store(ctx, u)
	return u, nil
}

func (c *UserCache) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	// The email may change, so evict the previous key as well.
	if prev, err := c.UserRepository.FindByID(ctx, user.ID); err == nil && prev.Email != user.Email {
		c.evict(ctx, prev.Email)
	}

	updated, err := c.UserRepository.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, updated.Email)
	return updated, nil
}

func (c *UserCache) Delete(ctx context.Context, id string) error {
	prev, lookupErr := c.UserRepository.FindByID(ctx, id)

	if err := c.UserRepository.Delete(ctx, id); err != nil {
		return err
	}
	if lookupErr == nil {
		c.evict(ctx, prev.Email)
	}
	return nil
}

func (c *UserCache) store(ctx context.Context, u *domain.User) {
	raw, err := json.Marshal(fromDomain(u))
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(u.Email), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("email", u.Email).Msg("user cache write failed")
	}
}

func (c *UserCache) evict(ctx context.Context, email string) {
	if err := c.client.Del(ctx, c.key(email)).Err(); err != nil {
		c.log.Warn().Err(err).Str("email", email).Msg("user cache evict failed")
	}
}

func (c *UserCache) key(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}

func fromDomain(u *domain.User) cachedUser {
	return cachedUser{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		City:         u.City,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (cu cachedUser) toDomain() *domain.User {
	return &domain.User{
		ID:           cu.ID,
		Email:        cu.Email,
		Name:         cu.Name,
		City:         cu.City,
		Role:         cu.Role,
		PasswordHash: cu.PasswordHash,
		CreatedAt:    cu.CreatedAt,
		UpdatedAt:    cu.UpdatedAt,
	}
}
