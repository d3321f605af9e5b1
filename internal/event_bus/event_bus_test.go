package event_bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishAndSubscribe(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	var received []Event
	bus.Subscribe("test.event", func(e Event) error {
		received = append(received, e)
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(ctx, "test.event", "payload")))
	require.NoError(t, bus.Publish(NewEvent(ctx, "other.event", "ignored")))

	require.Len(t, received, 1)
	assert.Equal(t, EventType("test.event"), received[0].Type)
	assert.Equal(t, "payload", received[0].Data)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	calls := 0
	unsubscribe := bus.Subscribe("test.event", func(e Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(ctx, "test.event", nil)))
	unsubscribe()
	require.NoError(t, bus.Publish(NewEvent(ctx, "test.event", nil)))

	assert.Equal(t, 1, calls)
}

func TestEventBus_HandlerErrorsAreJoined(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	failure := errors.New("handler failed")
	bus.Subscribe("test.event", func(e Event) error { return failure })
	delivered := false
	bus.Subscribe("test.event", func(e Event) error {
		delivered = true
		return nil
	})

	err := bus.Publish(NewEvent(ctx, "test.event", nil))
	assert.ErrorIs(t, err, failure)
	assert.True(t, delivered, "a failing handler must not stop dispatch")
}

func TestEventBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewEventBus()

	bus.Subscribe("test.event", func(e Event) error { panic("boom") })

	err := bus.Publish(NewEvent(context.Background(), "test.event", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestEventBus_CancelledContext(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	bus.Subscribe("test.event", func(e Event) error {
		called = true
		return nil
	})

	err := bus.Publish(NewEvent(ctx, "test.event", nil))
	assert.Error(t, err)
	assert.False(t, called)
}

func TestSubscribeTyped(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	type payload struct {
		Value int
	}

	var got payload
	SubscribeTyped[payload](bus, "typed.event", func(e EventT[payload]) error {
		got = e.Data
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(ctx, "typed.event", payload{Value: 42})))
	assert.Equal(t, 42, got.Value)

	t.Run("mismatched payload type is skipped", func(t *testing.T) {
		require.NoError(t, bus.Publish(NewEvent(ctx, "typed.event", "not a payload")))
		assert.Equal(t, 42, got.Value)
	})
}

func TestEvent_Timestamp(t *testing.T) {
	before := time.Now()
	e := NewEvent(context.Background(), "test.event", nil)
	assert.False(t, e.Timestamp.Before(before))
}
