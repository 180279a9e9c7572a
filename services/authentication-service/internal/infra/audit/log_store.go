// Package audit writes audit events to the structured log stream, where the
// log pipeline keeps them as an append-only record.
package audit

import (
	"context"

	"github.com/tradeguard/platform/services/authentication-service/internal/domain/audit"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/repository"
	"github.com/tradeguard/platform/shared/logging"
)

var _ repository.AuditStore = (*LogStore)(nil)

type LogStore struct {
	logger *logging.Logger
}

func NewLogStore(logger *logging.Logger) *LogStore {
	return &LogStore{logger: logger.WithComponent("audit")}
}

func (s *LogStore) Append(ctx context.Context, event *audit.AuditEvent) error {
	actor, target := "system", ""
	if event.ActorUserID != nil {
		actor = event.ActorUserID.String()
	}
	if event.TargetID != nil {
		target = event.TargetID.String()
	}

	details := map[string]any{
		"auditId":   event.ID.String(),
		"ipAddress": event.IPAddress,
		"at":        event.CreatedAt,
	}
	for k, v := range event.Metadata {
		details[k] = v
	}
	s.logger.Audit(ctx, event.Action, "user", target, actor, details)
	return nil
}
