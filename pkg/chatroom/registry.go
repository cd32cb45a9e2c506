package chatroom

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// namePool is the finite pool of display names handed out to participants.
// Drawn without replacement; once exhausted, names get a random numeric
// suffix.
var namePool = []string{
	"Alex", "Blair", "Casey", "Devon", "Emery",
	"Finley", "Gray", "Harper", "Indigo", "Jules",
}

// Participant is a chatroom member. The ID is a stable opaque identifier
// assigned on first contact; the display name comes from the pool.
type Participant struct {
	ID   string `json:"user_id"`
	Name string `json:"user_name"`
}

// Registry maps participant ids to display names and tracks how many live
// bus subscriptions each participant holds. A participant is active iff it
// holds at least one live subscription.
type Registry struct {
	mu            sync.Mutex
	participants  map[string]Participant
	nextName      int
	subscriptions map[string]int // participant id → live subscription count
}

// NewRegistry creates an empty participant registry.
func NewRegistry() *Registry {
	return &Registry{
		participants:  make(map[string]Participant),
		subscriptions: make(map[string]int),
	}
}

// Ensure returns the participant for id, registering it with a fresh display
// name on first contact. An empty id mints a new one. The second return
// value reports whether the participant was newly created.
func (r *Registry) Ensure(id string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if p, ok := r.participants[id]; ok {
			return p, false
		}
	} else {
		id = uuid.New().String()
	}

	p := Participant{ID: id, Name: r.nextDisplayName()}
	r.participants[id] = p
	return p, true
}

// Lookup returns the participant for id if it exists.
func (r *Registry) Lookup(id string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	return p, ok
}

// Name returns the display name for id, or the id itself when unknown.
func (r *Registry) Name(id string) string {
	if p, ok := r.Lookup(id); ok {
		return p.Name
	}
	return id
}

// subscriptionStarted records a live subscription for a participant.
// Called by the bus.
func (r *Registry) subscriptionStarted(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscriptions[id]++
}

// subscriptionEnded releases a live subscription for a participant.
func (r *Registry) subscriptionEnded(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subscriptions[id] <= 1 {
		delete(r.subscriptions, id)
		return
	}
	r.subscriptions[id]--
}

// Active returns the ids of participants currently holding a live
// subscription. Order is unspecified.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.subscriptions))
	for id := range r.subscriptions {
		ids = append(ids, id)
	}
	return ids
}

// ActiveCount returns the number of active participants.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscriptions)
}

// nextDisplayName draws the next pool name, or a suffixed one when the pool
// is exhausted. Caller holds r.mu.
func (r *Registry) nextDisplayName() string {
	if r.nextName < len(namePool) {
		name := namePool[r.nextName]
		r.nextName++
		return name
	}
	return fmt.Sprintf("%s-%d", namePool[rand.Intn(len(namePool))], rand.Intn(10000))
}
