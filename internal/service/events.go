package service

import (
	"context"
	"log/slog"

	"equiprent/internal/domain"
	"equiprent/internal/logger"
)

// logPublisher writes domain events to the structured log. Stands in
// for a message broker; downstream consumers tail the log.
type logPublisher struct {
	log *slog.Logger
}

func NewLogPublisher() EventPublisher {
	return &logPublisher{log: logger.WithService("events")}
}

func (p *logPublisher) Publish(ctx context.Context, event domain.Event) {
	p.log.InfoContext(ctx, "domain event",
		"name", event.EventName(),
		"occurred_at", event.OccurredAt(),
		"detail", event,
	)
}
