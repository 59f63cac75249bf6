package domain

import "time"

// Claim names shared by issuers and verifiers.
const (
	ClaimKind = "kind"
	ClaimRole = "role"
)

// Token kinds carried in the ClaimKind claim.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// ParsedToken is the verified content of a signed token.
type ParsedToken struct {
	Subject   string
	Kind      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    map[string]any
}
