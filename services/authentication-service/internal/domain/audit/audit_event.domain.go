// services/authentication-service/internal/domain/audit/audit_event.domain.go
package audit

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionUserRegistered  = "USER_REGISTERED"
	ActionUserLoggedIn    = "USER_LOGGED_IN"
	ActionProfileUpdated  = "PROFILE_UPDATED"
	ActionPasswordChanged = "PASSWORD_CHANGED"
)

// AuditEvent represents an immutable security record.
// It answers: Who did what, when, and with what context?
type AuditEvent struct {
	ID          uuid.UUID
	ActorUserID *uuid.UUID // nil for system actions
	Action      string
	TargetID    *uuid.UUID
	IPAddress   string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// NewUserEvent records an action a user performed on their own account.
func NewUserEvent(action string, userID uuid.UUID, ip string, now time.Time) *AuditEvent {
	return &AuditEvent{
		ID:          uuid.New(),
		ActorUserID: &userID,
		Action:      action,
		TargetID:    &userID,
		IPAddress:   ip,
		CreatedAt:   now,
	}
}

/*Audit logs are write-only and append-only.

Every successful state-changing command that affects security or account
data emits exactly one audit event from the application command, never from
controllers or repositories.

Never audited: reads, failed authorization, validation errors.
Always audited: registration, successful login, profile update, password change.
*/
