package model

import "time"

// Status represents the lifecycle state of a single action.
type Status string

const (
	// StatusIdle means the action has never run
	StatusIdle Status = "Idle"

	// StatusPending means a request is in flight
	StatusPending Status = "Pending"

	// StatusFailed means the last run ended with an error
	StatusFailed Status = "Failed"

	// StatusSucceeded means the last run completed its side effect
	StatusSucceeded Status = "Succeeded"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsActive returns true while a request is in flight
func (s Status) IsActive() bool {
	return s == StatusPending
}

// IsSettled returns true if the last run has finished, successfully or not
func (s Status) IsSettled() bool {
	return s == StatusFailed || s == StatusSucceeded
}

// FailureKind classifies why an action failed.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureNetwork    FailureKind = "network"
	FailureHTTPStatus FailureKind = "http_status"
	FailureTimeout    FailureKind = "timeout"
	FailureCanceled   FailureKind = "canceled"
	FailureLocal      FailureKind = "local"
)

// ActionState is a snapshot of one action's state.
type ActionState struct {
	Action     Action
	Status     Status
	Failure    FailureKind
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the last settled run took, or 0 while pending.
func (s ActionState) Duration() time.Duration {
	if !s.Status.IsSettled() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
