package issue

import (
	"fmt"

	"github.com/forgecraft/sah/internal/errs"
)

// transitions mirrors the allowed-transition table idiom used for task
// state machines: pending can only move to active, active can only move
// to completed, and completed is terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusActive},
	StatusActive:    {StatusCompleted},
	StatusCompleted: {},
}

func isAllowedTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func transitionError(from, to Status) error {
	return errs.New(errs.KindState, "invalid_transition",
		fmt.Sprintf("cannot transition issue from %q to %q", from, to), errs.Error)
}

// errAlreadyInState is returned when from == to is requested explicitly.
func errAlreadyInState(status Status) error {
	return errs.New(errs.KindState, "already_in_state",
		fmt.Sprintf("issue is already in state %q", status), errs.Warning)
}

// Validate checks whether moving an issue from "from" to "to" is legal.
func Validate(from, to Status) error {
	if from == to {
		return errAlreadyInState(from)
	}
	if !isAllowedTransition(from, to) {
		return transitionError(from, to)
	}
	return nil
}
