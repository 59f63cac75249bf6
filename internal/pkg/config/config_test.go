package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": validSecret,
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "user-management", cfg.Auth.JWTIssuer)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "user_management", cfg.Mongo.Database)
	assert.Equal(t, 5*time.Minute, cfg.Redis.UserCacheTTL)
	assert.Equal(t, 5.0, cfg.RateLimit.AuthRate)
	assert.Equal(t, 10, cfg.RateLimit.AuthBurst)
	assert.Equal(t, 4, cfg.Audit.Workers)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.TrustedProxyNets())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       validSecret,
		"ENV":              "production",
		"ACCESS_TOKEN_TTL": "30m",
		"MONGO_URI":        "mongodb://db:27017",
		"REDIS_DB":         "2",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoad_SecretRequired(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":        "short",
		"ACCESS_TOKEN_TTL":  "48h",
		"REFRESH_TOKEN_TTL": "24h",
		"BCRYPT_COST":       "2",
	}))
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"JWT_SECRET", "REFRESH_TOKEN_TTL", "BCRYPT_COST"} {
		assert.True(t, strings.Contains(msg, want), "expected %q in %q", want, msg)
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      validSecret,
		"TRUSTED_PROXIES": "10.0.0.0/8,192.0.2.0/24",
	}))
	require.NoError(t, err)

	nets := cfg.TrustedProxyNets()
	require.Len(t, nets, 2)
	assert.Equal(t, "10.0.0.0/8", nets[0].String())
	assert.Equal(t, "192.0.2.0/24", nets[1].String())

	_, err = load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      validSecret,
		"TRUSTED_PROXIES": "10.0.0.1",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUSTED_PROXIES")
}
