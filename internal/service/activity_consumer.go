package service

import (
	"context"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/pkg/events"
)

const activityModule = "Activity"

type IActivityConsumer interface {
	Start(ctx context.Context) error
}

// activityConsumer writes every domain event into the system log so the
// admin log viewer doubles as an audit trail.
type activityConsumer struct {
	subscriber events.Subscriber
	subject    string
	durable    string
	logger     logger.ILogger
}

func NewActivityConsumer(subscriber events.Subscriber, subject string, log logger.ILogger) IActivityConsumer {
	return &activityConsumer{
		subscriber: subscriber,
		subject:    subject,
		durable:    "rag-activity-audit",
		logger:     log,
	}
}

func (c *activityConsumer) Start(ctx context.Context) error {
	return c.subscriber.Subscribe(ctx, c.subject, c.durable, c.handle)
}

func (c *activityConsumer) handle(_ context.Context, evt events.Event) error {
	details := make(map[string]interface{}, len(evt.Payload())+1)
	for k, v := range evt.Payload() {
		details[k] = v
	}
	details["occurred_at"] = evt.Timestamp()
	c.logger.Info(activityModule, evt.EventType(), details)
	return nil
}
