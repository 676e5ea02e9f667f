package service

import (
	"context"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/pkg/events"
)

// ActivityPublisher emits domain events without failing the caller. A nil
// bus turns every call into a no-op.
type ActivityPublisher struct {
	bus    events.Publisher
	logger logger.ILogger
}

func NewActivityPublisher(bus events.Publisher, log logger.ILogger) *ActivityPublisher {
	return &ActivityPublisher{bus: bus, logger: log}
}

func (p *ActivityPublisher) Publish(ctx context.Context, evt events.Event) {
	if p == nil || p.bus == nil {
		return
	}
	if err := p.bus.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+evt.EventType()+" event", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
