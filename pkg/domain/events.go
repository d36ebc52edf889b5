package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventRunRefused EventType = "run_refused"
	EventRunFinish  EventType = "run_finish"
)

// RunEvent describes a dispatcher lifecycle transition for observability.
type RunEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FlowID    string    `json:"flow_id"`
	FlowName  string    `json:"flow_name,omitempty"`

	// Failed is set on EventRunFinish when the external runner reported an
	// error. The error itself is logged, not carried here.
	Failed bool `json:"failed,omitempty"`
}

// RunHooks defines callbacks for dispatcher observability.
// Nil callbacks are skipped.
type RunHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnRunRefused func(context.Context, *RunEvent)
	OnRunFinish  func(context.Context, *RunEvent)
}
