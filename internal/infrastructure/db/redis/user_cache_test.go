package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usermanager/user-management/internal/core/domain"
	"github.com/usermanager/user-management/internal/core/ports"
)

// countingRepo is an in-memory ports.UserRepository that counts email lookups.
type countingRepo struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	emailLookup int
}

var _ ports.UserRepository = (*countingRepo)(nil)

func newCountingRepo(users ...*domain.User) *countingRepo {
	r := &countingRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		c := *u
		r.users[u.ID] = &c
	}
	return r
}

func (r *countingRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emailLookup++
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *countingRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *countingRepo) List(context.Context) ([]*domain.User, error) { return nil, nil }

func (r *countingRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	r.users[u.ID] = &c
	return u, nil
}

func (r *countingRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	r.users[u.ID] = &c
	return u, nil
}

func (r *countingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *countingRepo) lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emailLookup
}

func newTestCache(t *testing.T, repo ports.UserRepository) (*UserCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewUserCache(repo, client, time.Minute, zerolog.Nop()), mr
}

func sampleUser() *domain.User {
	return &domain.User{
		ID:           "u-1",
		Email:        "a@x.com",
		Name:         "Ann",
		City:         "Braga",
		Role:         domain.RoleUser,
		PasswordHash: "$2a$04$hash",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestUserCache_ReadThrough(t *testing.T) {
	repo := newCountingRepo(sampleUser())
	cache, mr := newTestCache(t, repo)
	ctx := context.Background()

	first, err := cache.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lookups())
	assert.True(t, mr.Exists("user:email:a@x.com"))

	second, err := cache.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lookups(), "second lookup should be served from redis")
	assert.Equal(t, first, second)
	assert.Equal(t, "$2a$04$hash", second.PasswordHash)
}

func TestUserCache_Expiry(t *testing.T) {
	repo := newCountingRepo(sampleUser())
	cache, mr := newTestCache(t, repo)
	ctx := context.Background()

	_, err := cache.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cache.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lookups())
}

func TestUserCache_MissIsNotCached(t *testing.T) {
	repo := newCountingRepo()
	cache, mr := newTestCache(t, repo)

	_, err := cache.FindByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.False(t, mr.Exists("user:email:nobody@x.com"))
}

func TestUserCache_UpdateEvictsOldAndNewEmail(t *testing.T) {
	repo := newCountingRepo(sampleUser())
	cache, mr := newTestCache(t, repo)
	ctx := context.Background()

	_, err := cache.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, mr.Exists("user:email:a@x.com"))

	changed := sampleUser()
	changed.Email = "new@x.com"
	_, err = cache.Update(ctx, changed)
	require.NoError(t, err)

	assert.False(t, mr.Exists("user:email:a@x.com"))
	assert.False(t, mr.Exists("user:email:new@x.com"))
}

func TestUserCache_DeleteEvicts(t *testing.T) {
	repo := newCountingRepo(sampleUser())
	cache, mr := newTestCache(t, repo)
	ctx := context.Background()

	_, err := cache.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	require.NoError(t, cache.Delete(ctx, "u-1"))
	assert.False(t, mr.Exists("user:email:a@x.com"))

	_, err = cache.FindByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserCache_RedisDownFallsThrough(t *testing.T) {
	repo := newCountingRepo(sampleUser())
	cache, mr := newTestCache(t, repo)
	mr.Close()

	u, err := cache.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
}

func TestUserCache_CorruptEntryIsDiscarded(t *testing.T) {
	repo := newCountingRepo(sampleUser())
	cache, mr := newTestCache(t, repo)
	require.NoError(t, mr.Set("user:email:a@x.com", "{not json"))

	u, err := cache.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, 1, repo.lookups())
}
