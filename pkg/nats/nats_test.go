package nats

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type busFixture struct {
	pub     *Publisher
	sub     *Subscriber
	durable string
	userID  string
}

func newBusFixture(t *testing.T) *busFixture {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}
	log := logger.NewNopLogger()

	pub, err := NewPublisher(url, log)
	require.NoError(t, err)
	sub, err := NewSubscriber(url, log)
	require.NoError(t, err)

	f := &busFixture{
		pub:     pub,
		sub:     sub,
		durable: "test-" + uuid.NewString()[:8],
		userID:  "u-" + uuid.NewString(),
	}
	t.Cleanup(func() {
		sub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pub.js.DeleteConsumer(ctx, StreamName, f.durable)
		pub.Close()
	})
	return f
}

// mine filters out events left in the stream by earlier runs.
func (f *busFixture) mine(e events.Event) bool {
	return e.Payload()["user_id"] == f.userID
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	f := newBusFixture(t)
	ctx := context.Background()

	got := make(chan events.Event, 1)
	require.NoError(t, f.sub.Subscribe(ctx, SubjectPrefix+">", f.durable, func(_ context.Context, e events.Event) error {
		if f.mine(e) {
			got <- e
		}
		return nil
	}))

	require.NoError(t, f.pub.Publish(ctx, events.SessionCreated(f.userID, "s-1", time.Now())))

	select {
	case e := <-got:
		assert.Equal(t, events.TypeSessionCreated, e.EventType())
		assert.Equal(t, "s-1", e.Payload()["session_id"])
	case <-time.After(10 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHandlerFailureIsRedelivered(t *testing.T) {
	f := newBusFixture(t)
	ctx := context.Background()

	var attempts atomic.Int32
	done := make(chan struct{})
	require.NoError(t, f.sub.Subscribe(ctx, SubjectPrefix+events.TypeSessionDeleted, f.durable, func(_ context.Context, e events.Event) error {
		if !f.mine(e) {
			return nil
		}
		if attempts.Add(1) == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}))

	require.NoError(t, f.pub.Publish(ctx, events.SessionDeleted(f.userID, "s-1", time.Now())))

	select {
	case <-done:
		assert.Equal(t, int32(2), attempts.Load())
	case <-time.After(10 * time.Second):
		t.Fatal("event not redelivered")
	}
}
