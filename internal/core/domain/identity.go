package domain

import (
	"context"
	"slices"
)

// RequestIdentity is the identity resolved for a single request. The zero
// value is the anonymous identity.
type RequestIdentity struct {
	User        *User
	Authorities []string
}

// NewRequestIdentity binds a user together with the authorities its role grants.
func NewRequestIdentity(u *User) RequestIdentity {
	return RequestIdentity{User: u, Authorities: u.Authorities()}
}

// IsAnonymous reports whether no user is bound.
func (id RequestIdentity) IsAnonymous() bool {
	return id.User == nil
}

// Email returns the bound user's email, or "" for anonymous.
func (id RequestIdentity) Email() string {
	if id.User == nil {
		return ""
	}
	return id.User.Email
}

// HasAnyAuthority reports whether the identity holds at least one of required.
func (id RequestIdentity) HasAnyAuthority(required ...string) bool {
	for _, r := range required {
		if slices.Contains(id.Authorities, r) {
			return true
		}
	}
	return false
}

type identityCtxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id RequestIdentity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFrom returns the identity bound to ctx, if any.
func IdentityFrom(ctx context.Context) (RequestIdentity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(RequestIdentity)
	return id, ok
}
