package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simtrader/internal/events"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := events.NewBus()

	ch, unsub := bus.Subscribe(events.EventSignal, 4)
	defer unsub()

	bus.Publish(events.EventSignal, "hello")
	bus.Publish(events.EventPriceTick, "not for us")

	select {
	case msg := <-ch:
		assert.Equal(t, "hello", msg)
	default:
		t.Fatal("expected a message")
	}

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %v", msg)
	default:
	}
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := events.NewBus()

	_, unsub := bus.Subscribe(events.EventPriceTick, 1)
	defer unsub()

	// a full buffer drops instead of blocking
	for i := 0; i < 100; i++ {
		bus.Publish(events.EventPriceTick, i)
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := events.NewBus()

	ch, unsub := bus.Subscribe(events.EventTradeClosed, 1)
	unsub()

	_, ok := <-ch
	require.False(t, ok)

	// publishing after unsubscribe is a no-op
	bus.Publish(events.EventTradeClosed, "late")
}
