package fsm

import (
	"fmt"

	"eventmarket/internal/models"
)

// Status constants used by the event request state machine.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Actor is the side of a request performing a transition.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorProvider Actor = "provider"
)

var transitions = map[string]map[string][]Actor{
	StatusPending: {
		StatusAccepted:  {ActorProvider},
		StatusCancelled: {ActorCustomer, ActorProvider},
	},
	StatusAccepted: {
		StatusCompleted: {ActorProvider},
		StatusCancelled: {ActorCustomer, ActorProvider},
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Valid reports whether status is one of the known statuses.
func Valid(status string) bool {
	_, ok := transitions[status]
	return ok
}

// Terminal reports whether no transition leaves status.
func Terminal(status string) bool {
	return len(transitions[status]) == 0
}

// CanTransition returns whether some actor may move a request from one status
// to the other. Staying in the same status is not a transition.
func CanTransition(from, to string) bool {
	_, ok := transitions[from][to]
	return ok
}

// Allowed returns whether actor may perform the from -> to transition.
func Allowed(from, to string, actor Actor) bool {
	for _, a := range transitions[from][to] {
		if a == actor {
			return true
		}
	}
	return false
}

// Check validates a transition for actor. An unreachable target yields
// models.ErrInvalidTransition; a reachable one reserved for the other side
// yields models.ErrForbidden.
func Check(from, to string, actor Actor) error {
	if !Valid(to) {
		return models.NewValidationError("status", fmt.Sprintf("unknown status %q", to))
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
	}
	if !Allowed(from, to, actor) {
		return fmt.Errorf("%w: %s may not move a request from %s to %s", models.ErrForbidden, actor, from, to)
	}
	return nil
}
