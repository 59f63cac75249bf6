package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/usermanager/user-management/internal/core/domain"
)

// reserved claims are owned by the codec and cannot be overridden by callers.
var reserved = map[string]struct{}{"sub": {}, "iat": {}, "exp": {}, "iss": {}}

// Option customises a JWTCodec.
type Option func(*JWTCodec)

// WithClock replaces the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(c *JWTCodec) { c.now = now }
}

// WithIssuer sets the "iss" claim on issued tokens and requires it on parse.
func WithIssuer(iss string) Option {
	return func(c *JWTCodec) { c.issuer = iss }
}

// JWTCodec signs and verifies HS256 tokens with a fixed process-wide secret.
// It holds no mutable state.
type JWTCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTCodec returns a codec signing with secret.
func NewJWTCodec(secret string, opts ...Option) *JWTCodec {
	c := &JWTCodec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a token for subject with the given extra claims and lifetime.
func (c *JWTCodec) Issue(subject string, claims map[string]any, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("issue token: %w", domain.ErrInvalidInput)
	}

	now := c.now()
	mc := jwt.MapClaims{}
	for k, v := range claims {
		if _, ok := reserved[k]; ok {
			continue
		}
		mc[k] = v
	}
	mc["sub"] = subject
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(ttl).Unix()
	if c.issuer != "" {
		mc["iss"] = c.issuer
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of token and returns its content.
func (c *JWTCodec) Parse(token string) (*domain.ParsedToken, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, domain.ErrTokenMalformed
	}

	parsed := &domain.ParsedToken{
		Subject: sub,
		Claims:  map[string]any(claims),
	}
	if kind, ok := claims[domain.ClaimKind].(string); ok {
		parsed.Kind = kind
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		parsed.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		parsed.ExpiresAt = exp.Time
	}
	return parsed, nil
}

// IsValid reports whether token verifies, is unexpired and was issued for
// expectedSubject.
func (c *JWTCodec) IsValid(token, expectedSubject string) bool {
	parsed, err := c.Parse(token)
	if err != nil {
		return false
	}
	return expectedSubject != "" && parsed.Subject == expectedSubject
}

// classify maps jwt parser errors onto the codec's three failure kinds.
// Signature checks run before claim validation, so a tampered expired token
// reports a signature failure.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", domain.ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
	}
}
