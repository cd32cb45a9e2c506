package session

import (
	"sort"
	"sync"
)

// tally is one in-progress vote: participant id to standing, plus the
// excluded proposer for mediation votes.
type tally struct {
	votes    map[string]VoteChoice
	excluded string
}

type sessionRecord struct {
	state   State
	tallies map[VoteKind]*tally
}

// Store owns all session state and vote tallies behind one mutex. Critical
// sections only read-modify-write a few fields and are never held across an
// LLM call.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionRecord
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*sessionRecord)}
}

// record returns the session record, creating it on first touch.
// Caller holds s.mu.
func (s *Store) record(sessionID string) *sessionRecord {
	rec, ok := s.sessions[sessionID]
	if !ok {
		rec = &sessionRecord{tallies: make(map[VoteKind]*tally)}
		s.sessions[sessionID] = rec
	}
	return rec
}

// Get returns a snapshot of the session state. A session that was never
// written reads as the zero state.
func (s *Store) Get(sessionID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.sessions[sessionID]; ok {
		return rec.state
	}
	return State{}
}

// SetPlans overwrites the route and restaurant texts.
func (s *Store) SetPlans(sessionID, route, restaurant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(sessionID)
	rec.state.RoutePlan = route
	rec.state.RestaurantPlan = restaurant
}

// SetRoutePlan overwrites only the route text.
func (s *Store) SetRoutePlan(sessionID, route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(sessionID).state.RoutePlan = route
}

// SetRestaurantPlan overwrites only the restaurant text.
func (s *Store) SetRestaurantPlan(sessionID, restaurant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(sessionID).state.RestaurantPlan = restaurant
}

// SetBudget overwrites the budget and currency.
func (s *Store) SetBudget(sessionID string, amount float64, currency string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(sessionID)
	rec.state.Budget = &amount
	rec.state.Currency = currency
}

// SetAwaitingReplan opens or closes the replan gate. Opening it while a
// vote is pending returns ErrVotePending.
func (s *Store) SetAwaitingReplan(sessionID string, awaiting bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(sessionID)
	if awaiting && (rec.state.AwaitingMediation || rec.state.AwaitingConfirmation) {
		return ErrVotePending
	}
	rec.state.AwaitingReplanConfirmation = awaiting
	return nil
}

// EnterMediation opens the mediation gate with the proposal context and a
// fresh tally over activeIDs minus the proposer.
func (s *Store) EnterMediation(sessionID, request, proposerID string, modType ModificationType, activeIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(sessionID)
	if rec.state.AwaitingMediation || rec.state.AwaitingConfirmation {
		return ErrVotePending
	}
	// An explicit modification supersedes a pending replan question.
	rec.state.AwaitingReplanConfirmation = false
	rec.state.AwaitingMediation = true
	rec.state.PendingModificationRequest = request
	rec.state.MediationRequestingUserID = proposerID
	rec.state.MediationModificationType = modType
	rec.resetTally(VoteMediation, activeIDs, proposerID)
	return nil
}

// ClearMediation closes the mediation gate. The stashed proposal context is
// cleared with it; callers snapshot first when they need to replay it.
func (s *Store) ClearMediation(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(sessionID)
	rec.state.AwaitingMediation = false
	rec.state.PendingModificationRequest = ""
	rec.state.MediationRequestingUserID = ""
	rec.state.MediationModificationType = ""
	delete(rec.tallies, VoteMediation)
}

// EnterConfirmation opens the confirmation gate with a fresh tally over all
// active participants.
func (s *Store) EnterConfirmation(sessionID string, activeIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(sessionID)
	if rec.state.AwaitingMediation || rec.state.AwaitingConfirmation {
		return ErrVotePending
	}
	rec.state.AwaitingReplanConfirmation = false
	rec.state.AwaitingConfirmation = true
	rec.resetTally(VoteConfirmation, activeIDs, "")
	return nil
}

// ClearConfirmation closes the confirmation gate and drops its tally.
func (s *Store) ClearConfirmation(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(sessionID)
	rec.state.AwaitingConfirmation = false
	delete(rec.tallies, VoteConfirmation)
}

// resetTally seeds pending for every participant active at gate entry,
// except the excluded one. The seeded set is only a starting point; passing
// is always evaluated against live membership. Caller holds s.mu.
func (rec *sessionRecord) resetTally(kind VoteKind, activeIDs []string, exclude string) {
	t := &tally{votes: make(map[string]VoteChoice), excluded: exclude}
	for _, id := range activeIDs {
		if id == exclude {
			continue
		}
		t.votes[id] = VotePending
	}
	rec.tallies[kind] = t
}

// RecordVote sets one participant's standing in the tally. Votes from the
// excluded proposer are ignored.
func (s *Store) RecordVote(sessionID string, kind VoteKind, participantID string, choice VoteChoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(sessionID)
	t, ok := rec.tallies[kind]
	if !ok {
		return ErrNoTally
	}
	if participantID == t.excluded {
		return nil
	}
	t.votes[participantID] = choice
	return nil
}

// TallyPassing evaluates the vote over the current membership: it passes
// iff every id in activeIDs except the excluded proposer voted agree, and
// at least one such id exists. Membership is re-checked on every call, so a
// voter who disconnects mid-vote stops blocking the tally and a participant
// who joins mid-vote is required before it can pass.
func (s *Store) TallyPassing(sessionID string, kind VoteKind, activeIDs []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	t, ok := rec.tallies[kind]
	if !ok {
		return false
	}
	counted := 0
	for _, id := range activeIDs {
		if id == t.excluded {
			continue
		}
		counted++
		if t.votes[id] != VoteAgree {
			return false
		}
	}
	return counted > 0
}

// PendingVoters returns the sorted ids in activeIDs, minus the excluded
// proposer, that have not yet agreed.
func (s *Store) PendingVoters(sessionID string, kind VoteKind, activeIDs []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	t, ok := rec.tallies[kind]
	if !ok {
		return nil
	}
	var ids []string
	for _, id := range activeIDs {
		if id == t.excluded {
			continue
		}
		if t.votes[id] != VoteAgree {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
