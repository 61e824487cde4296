package worker

import (
	"fmt"
	"slices"
)

// State is the lifecycle position of one catalog entry
type State string

const (
	StatePending    State = "pending"
	StateDispatched State = "dispatched"
	StateFetched    State = "fetched"
	StateExtracted  State = "extracted"
	StateEmitted    State = "emitted"
	StateSkipped    State = "skipped"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// transitions lists the states reachable from each non-terminal state.
// Pending fails when the politeness delay cannot fit before the run
// deadline; Extracted fails when the sink rejects the record.
var transitions = map[State][]State{
	StatePending:    {StateDispatched, StateSkipped, StateFailed, StateCancelled},
	StateDispatched: {StateFetched, StateFailed, StateCancelled},
	StateFetched:    {StateExtracted, StateFailed, StateCancelled},
	StateExtracted:  {StateEmitted, StateFailed, StateCancelled},
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

// Entry tracks one catalog entry through the pipeline
type Entry struct {
	AppID    string
	URL      string
	State    State
	Err      error
	Attempts int
}

func newEntry(appID string) *Entry {
	return &Entry{AppID: appID, State: StatePending}
}

// transition moves the entry to next, rejecting out-of-order moves
func (e *Entry) transition(next State) error {
	if !slices.Contains(transitions[e.State], next) {
		return fmt.Errorf("entry %s: invalid transition %s -> %s", e.AppID, e.State, next)
	}
	e.State = next
	return nil
}

// fail moves the entry to a failure terminal and keeps the cause
func (e *Entry) fail(next State, err error) error {
	e.Err = err
	return e.transition(next)
}
