package chatroom

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-subscriber queue capacity. A full queue means
// the consumer stopped draining; it is treated as dead and unregistered so
// the publisher never blocks.
const subscriberBuffer = 256

// Bus is the process-local broadcast bus. Every published frame is appended
// to the replay ring and fanned out to all live subscriber queues. A new
// subscription first receives the most recent replayCount ring frames in
// publish order, then live frames.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]*Subscription
	ring        []Frame
	ringSize    int
	replayCount int
	registry    *Registry
}

// Subscription is one live consumer of the bus.
type Subscription struct {
	id            string
	participantID string
	bus           *Bus

	mu     sync.Mutex
	ch     chan Frame
	closed bool
}

// C returns the frame channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Frame { return s.ch }

// ParticipantID returns the owning participant.
func (s *Subscription) ParticipantID() string { return s.participantID }

// Close ends the subscription and releases the participant's active slot.
// Safe to call multiple times and concurrently with Publish.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.bus.remove(s)
	s.bus.registry.subscriptionEnded(s.participantID)
}

// trySend enqueues a frame unless the subscription is closed or its queue
// is full. Returns false when the subscriber should be evicted.
func (s *Subscription) trySend(frame Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true // already gone, nothing to evict
	}
	select {
	case s.ch <- frame:
		return true
	default:
		return false
	}
}

// NewBus creates a bus with the given ring capacity and replay count.
// The replay count is clamped to both the ring capacity and the subscriber
// queue capacity.
func NewBus(registry *Registry, ringSize, replayCount int) *Bus {
	if replayCount > ringSize {
		replayCount = ringSize
	}
	if replayCount > subscriberBuffer {
		replayCount = subscriberBuffer
	}
	return &Bus{
		subscribers: make(map[string]*Subscription),
		ring:        make([]Frame, 0, ringSize),
		ringSize:    ringSize,
		replayCount: replayCount,
		registry:    registry,
	}
}

// Subscribe registers a consumer for the given participant. The replay
// prefix is enqueued before the subscription goes live, so the consumer
// sees min(replayCount, ring size) historical frames in publish order
// followed by live frames.
func (b *Bus) Subscribe(participantID string) *Subscription {
	sub := &Subscription{
		id:            uuid.New().String(),
		participantID: participantID,
		ch:            make(chan Frame, subscriberBuffer),
		bus:           b,
	}

	b.mu.Lock()
	start := len(b.ring) - b.replayCount
	if start < 0 {
		start = 0
	}
	for _, f := range b.ring[start:] {
		sub.ch <- f
	}
	b.subscribers[sub.id] = sub
	b.mu.Unlock()

	b.registry.subscriptionStarted(participantID)
	return sub
}

// Publish appends the frame to the ring (replacing in place when a frame
// with the same id already exists) and fans it out to every live
// subscriber. Subscribers with full queues are unregistered.
func (b *Bus) Publish(frame Frame) {
	b.mu.Lock()
	b.upsertRing(frame)
	// Snapshot subscribers so the enqueue loop runs without the bus lock.
	subs := make([]*Subscription, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		if !sub.trySend(frame) {
			slog.Warn("Dropping dead subscriber with full queue",
				"participant_id", sub.participantID)
			sub.Close()
		}
	}
}

// RingLen returns the number of frames currently retained.
func (b *Bus) RingLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ring)
}

// upsertRing replaces the ring entry with frame's id, or appends, trimming
// to ringSize. Caller holds b.mu.
func (b *Bus) upsertRing(frame Frame) {
	for i := range b.ring {
		if b.ring[i].ID == frame.ID {
			b.ring[i] = frame
			return
		}
	}
	b.ring = append(b.ring, frame)
	if len(b.ring) > b.ringSize {
		b.ring = b.ring[len(b.ring)-b.ringSize:]
	}
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	delete(b.subscribers, sub.id)
	b.mu.Unlock()
}
