package ports

import (
	"time"

	"github.com/usermanager/user-management/internal/core/domain"
)

// TokenCodec issues and verifies signed, expiring identity tokens.
type TokenCodec interface {
	// Issue signs a token for subject carrying claims, valid for ttl.
	Issue(subject string, claims map[string]any, ttl time.Duration) (string, error)
	// Parse verifies token and returns its content. It fails with
	// domain.ErrTokenSignature, domain.ErrTokenMalformed or domain.ErrTokenExpired.
	Parse(token string) (*domain.ParsedToken, error)
	// IsValid reports whether token verifies, is unexpired and names expectedSubject.
	IsValid(token, expectedSubject string) bool
}
