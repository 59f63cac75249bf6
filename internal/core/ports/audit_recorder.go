package ports

import "github.com/usermanager/user-management/internal/core/domain"

// AuditRecorder accepts authentication events for asynchronous persistence.
// Record must not block the caller.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

// NopAuditRecorder discards every event.
type NopAuditRecorder struct{}

func (NopAuditRecorder) Record(domain.AuthEvent) {}
