// Package session holds the per-session planning state, the pending vote
// tallies, and the transitions between the gated phases.
package session

import "errors"

var (
	// ErrVotePending is returned when a gated phase is entered while
	// another gate is already open.
	ErrVotePending = errors.New("another vote is already pending")
	// ErrNoTally is returned when a vote is recorded before the tally
	// for that kind was reset.
	ErrNoTally = errors.New("no tally in progress")
)

// ModificationType tags which part of the plan a mediated change targets.
type ModificationType string

const (
	ModifyRoute      ModificationType = "route"
	ModifyRestaurant ModificationType = "restaurant"
	ModifyBudget     ModificationType = "budget"
)

// VoteKind discriminates the two consent protocols.
type VoteKind string

const (
	VoteMediation    VoteKind = "mediation"
	VoteConfirmation VoteKind = "confirmation"
)

// VoteChoice is one participant's standing in a tally.
type VoteChoice string

const (
	VotePending  VoteChoice = "pending"
	VoteAgree    VoteChoice = "agree"
	VoteDisagree VoteChoice = "disagree"
)

// State is a snapshot of one session's planning state. Returned by value;
// mutations go through the Store.
type State struct {
	RoutePlan      string
	RestaurantPlan string
	Budget         *float64
	Currency       string

	// At most one of the three gates is open at any instant.
	AwaitingReplanConfirmation bool
	AwaitingMediation          bool
	AwaitingConfirmation       bool

	// Mediation context. Set iff AwaitingMediation is true.
	PendingModificationRequest string
	MediationRequestingUserID  string
	MediationModificationType  ModificationType
}

// HasPlan reports whether the session carries any plan text worth
// confirming or modifying.
func (s State) HasPlan() bool {
	return s.RoutePlan != "" || s.RestaurantPlan != ""
}
