package agent

import "fmt"

// Phase names a model round-trip.
type Phase string

const (
	PhasePlan       Phase = "plan"
	PhaseSynthesize Phase = "synthesize"
)

// PhaseError is a failed model call. It ends the run; no partial envelope
// is returned.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("LLM API error: %v", e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
