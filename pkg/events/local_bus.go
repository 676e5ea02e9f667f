package events

import (
	"context"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// LocalTopic carries every event on the in-process bus.
const LocalTopic = "rag.events"

// LocalBus is the in-process fallback used when no NATS server is
// configured. Delivery is at-most-once within this process.
type LocalBus struct {
	pubSub *gochannel.GoChannel
}

func NewLocalBus() *LocalBus {
	return &LocalBus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 256},
			watermill.NopLogger{},
		),
	}
}

func (b *LocalBus) Publish(_ context.Context, event Event) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	return b.pubSub.Publish(LocalTopic, message.NewMessage(watermill.NewUUID(), payload))
}

// Subscribe consumes until ctx is done. A subject ending in ">" takes
// every event; otherwise its last token must equal the event type.
// durableName is ignored.
func (b *LocalBus) Subscribe(ctx context.Context, subject, _ string, handler Handler) error {
	messages, err := b.pubSub.Subscribe(ctx, LocalTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			event, err := Decode(msg.Payload)
			if err != nil {
				msg.Ack() // Ack invalid messages to prevent infinite retry
				continue
			}
			if !matches(subject, event.EventType()) {
				msg.Ack()
				continue
			}
			if err := handler(msg.Context(), event); err != nil {
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *LocalBus) Close() error {
	return b.pubSub.Close()
}

func matches(subject, eventType string) bool {
	if subject == "" || subject == ">" {
		return true
	}
	if strings.HasSuffix(subject, ">") {
		return true
	}
	return subject == eventType || strings.HasSuffix(subject, "."+eventType)
}
