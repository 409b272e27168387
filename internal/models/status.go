package models

import "fmt"

// Status is the document lifecycle state.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
	StatusDeleted    Status = "deleted"
)

// transitions encodes the monotonic state machine:
// uploading -> processing -> {ready, failed}; deleted is reachable from any
// non-deleted state and is terminal.
var transitions = map[Status][]Status{
	StatusUploading:  {StatusProcessing, StatusFailed, StatusDeleted},
	StatusProcessing: {StatusReady, StatusFailed, StatusDeleted},
	StatusReady:      {StatusDeleted},
	StatusFailed:     {StatusDeleted},
	StatusDeleted:    {},
}

// CanTransition reports whether moving from s to next is a valid step.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// TransitionSources returns the statuses allowed to move to next, in a
// stable order. Empty when next is terminal-only or unknown.
func TransitionSources(next Status) []Status {
	var out []Status
	for _, from := range [...]Status{StatusUploading, StatusProcessing, StatusReady, StatusFailed, StatusDeleted} {
		if from.CanTransition(next) {
			out = append(out, from)
		}
	}
	return out
}

// Transition validates and returns the next status, or an error naming the
// rejected step.
func (s Status) Transition(next Status) (Status, error) {
	if !next.Valid() {
		return s, fmt.Errorf("unknown document status %q", next)
	}
	if !s.CanTransition(next) {
		return s, fmt.Errorf("invalid document status transition %s -> %s", s, next)
	}
	return next, nil
}
