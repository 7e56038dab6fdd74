package whisper

import "fmt"

// Outcome tags the result of a transcription.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNoContext
	OutcomeEngineFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNoContext:
		return "no_context"
	case OutcomeEngineFailure:
		return "engine_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the tagged outcome of Context.Transcribe.
type Result struct {
	Outcome Outcome
	Text    string
	// Status is the engine return code; only meaningful for OutcomeEngineFailure.
	Status   int
	Segments int
}

// OK reports whether the transcription ran to completion.
func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// Err maps the outcome onto the package sentinel errors.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeOK:
		return nil
	case OutcomeNoContext:
		return ErrNoContext
	case OutcomeEngineFailure:
		return &EngineError{Code: r.Status}
	default:
		return fmt.Errorf("whisper: unknown outcome %d", int(r.Outcome))
	}
}

// CompatText collapses every failure into the empty string, matching callers
// that only understand "text or nothing".
func (r Result) CompatText() string {
	if r.Outcome != OutcomeOK {
		return ""
	}
	return r.Text
}
