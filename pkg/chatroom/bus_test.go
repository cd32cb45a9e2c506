package chatroom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainAvailable(sub *Subscription) []Frame {
	var frames []Frame
	for {
		select {
		case f, ok := <-sub.C():
			if !ok {
				return frames
			}
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestBusFanOut(t *testing.T) {
	reg := NewRegistry()
	bus := NewBus(reg, 100, 50)

	a := bus.Subscribe("user-a")
	b := bus.Subscribe("user-b")
	defer a.Close()
	defer b.Close()

	frame := NewFrame(KindUser, "hello")
	bus.Publish(frame)

	for _, sub := range []*Subscription{a, b} {
		select {
		case got := <-sub.C():
			assert.Equal(t, frame.ID, got.ID)
			assert.Equal(t, "hello", got.Content)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the frame")
		}
	}
}

func TestBusReplayPrefix(t *testing.T) {
	reg := NewRegistry()
	bus := NewBus(reg, 10, 3)

	for i := 0; i < 6; i++ {
		bus.Publish(NewFrame(KindUser, string(rune('a'+i))))
	}

	sub := bus.Subscribe("late-joiner")
	defer sub.Close()

	frames := drainAvailable(sub)
	require.Len(t, frames, 3, "replay prefix must be the last replayCount frames")
	assert.Equal(t, "d", frames[0].Content)
	assert.Equal(t, "e", frames[1].Content)
	assert.Equal(t, "f", frames[2].Content)
}

func TestBusReplayShorterThanPrefix(t *testing.T) {
	reg := NewRegistry()
	bus := NewBus(reg, 10, 5)

	bus.Publish(NewFrame(KindUser, "only one"))

	sub := bus.Subscribe("u")
	defer sub.Close()

	frames := drainAvailable(sub)
	require.Len(t, frames, 1)
	assert.Equal(t, "only one", frames[0].Content)
}

func TestBusRingReplaceByID(t *testing.T) {
	reg := NewRegistry()
	bus := NewBus(reg, 10, 10)

	frame := NewFrame(KindPlanner, "Day 1: ")
	bus.Publish(frame)

	frame.Content = "Day 1: Louvre"
	frame.Streaming = false
	bus.Publish(frame)

	assert.Equal(t, 1, bus.RingLen(), "snapshots of one logical message share a ring slot")

	sub := bus.Subscribe("u")
	defer sub.Close()
	frames := drainAvailable(sub)
	require.Len(t, frames, 1)
	assert.Equal(t, "Day 1: Louvre", frames[0].Content)
	assert.False(t, frames[0].Streaming)
}

func TestBusRingTrim(t *testing.T) {
	reg := NewRegistry()
	bus := NewBus(reg, 3, 3)

	for i := 0; i < 5; i++ {
		bus.Publish(NewFrame(KindUser, string(rune('a'+i))))
	}

	assert.Equal(t, 3, bus.RingLen())

	sub := bus.Subscribe("u")
	defer sub.Close()
	frames := drainAvailable(sub)
	require.Len(t, frames, 3)
	assert.Equal(t, "c", frames[0].Content)
	assert.Equal(t, "e", frames[2].Content)
}

func TestBusEvictsSlowSubscriber(t *testing.T) {
	reg := NewRegistry()
	bus := NewBus(reg, 2000, 0)

	slow := bus.Subscribe("slow")
	// Never drained; fill the queue past capacity.
	for i := 0; i < subscriberBuffer+1; i++ {
		bus.Publish(NewFrame(KindUser, "x"))
	}

	// The overflowing publish closes the subscription.
	frames := drainAvailable(slow)
	assert.Len(t, frames, subscriberBuffer)
	_, open := <-slow.C()
	assert.False(t, open, "evicted subscription channel must be closed")
	assert.Equal(t, 0, reg.ActiveCount())
}

func TestBusActiveTracking(t *testing.T) {
	reg := NewRegistry()
	bus := NewBus(reg, 10, 0)

	a1 := bus.Subscribe("user-a")
	a2 := bus.Subscribe("user-a")
	b := bus.Subscribe("user-b")

	assert.Equal(t, 2, reg.ActiveCount())
	assert.ElementsMatch(t, []string{"user-a", "user-b"}, reg.Active())

	a1.Close()
	assert.Equal(t, 2, reg.ActiveCount(), "user-a still holds one subscription")

	a2.Close()
	assert.Equal(t, 1, reg.ActiveCount())
	assert.ElementsMatch(t, []string{"user-b"}, reg.Active())

	b.Close()
	assert.Equal(t, 0, reg.ActiveCount())
}

func TestSubscriptionCloseIdempotent(t *testing.T) {
	reg := NewRegistry()
	bus := NewBus(reg, 10, 0)

	sub := bus.Subscribe("u")
	sub.Close()
	sub.Close()

	assert.Equal(t, 0, reg.ActiveCount())

	// Publishing after close must not panic.
	bus.Publish(NewFrame(KindUser, "post-close"))
}
