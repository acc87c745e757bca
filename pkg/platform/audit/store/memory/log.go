package memory

import (
	"context"
	"log/slog"

	audit "rentmeroom/pkg/platform/audit"
)

// LogStore writes events to a structured logger. It is the default sink when
// no broker is configured.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	return &LogStore{logger: logger}
}

func (s *LogStore) Append(ctx context.Context, event audit.Event) error {
	s.logger.InfoContext(ctx, "audit",
		"action", event.Action,
		"category", string(event.Category),
		"user_id", event.UserID.String(),
		"subject", event.Subject,
		"actor_id", event.ActorID,
		"request_id", event.RequestID,
	)
	return nil
}
