package domain

import "time"

// StepStatus is the outcome classification of one executed step.
type StepStatus string

const (
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult is one entry of the ordered result sequence a run produces.
// The core does not interpret results; it only accumulates them for the
// surrounding UI to render.
type StepResult struct {
	NodeID   string        `json:"node_id"`
	Status   StepStatus    `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}
