package domain

import "time"

// AuthEventType names the authentication operation an AuthEvent records.
type AuthEventType string

const (
	AuthEventRegister AuthEventType = "register"
	AuthEventLogin    AuthEventType = "login"
	AuthEventRefresh  AuthEventType = "refresh"
)

// AuthEvent is an audit record of an authentication attempt.
type AuthEvent struct {
	Type    AuthEventType
	Email   string
	Success bool
	Reason  string // optional failure reason
	At      time.Time
}
