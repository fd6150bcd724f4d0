package harness

import "github.com/roach88/registrar/internal/registry"

// OutcomeOK marks a step that succeeded.
const OutcomeOK = "ok"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int      `json:"step"`
	Op      string   `json:"op"`
	Caller  string   `json:"caller,omitempty"`
	Args    []string `json:"args"`
	Outcome string   `json:"outcome"` // "ok" or the error code
	Result  string   `json:"result,omitempty"`
	Seq     int64    `json:"seq,omitempty"` // journal seq of a committed mutation
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every step matched its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace contains every step in execution order, rejected ones included.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the registry state after the last step.
	Final registry.Snapshot `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
