// Package whisper wraps the whisper.cpp inference library behind a small
// owned-context API. The engine itself is reached through the Backend
// interface so the binding can run against the native library, built with
// the whispercpp tag, or against the in-process stub.
package whisper

import (
	"errors"
	"fmt"
)

// SampleRate is the sample rate whisper.cpp expects for input audio.
const SampleRate = 16000

var (
	// ErrModelPathRequired is returned by Open when no model path is given.
	ErrModelPathRequired = errors.New("whisper: model path required")
	// ErrModelLoad indicates the engine returned no context for the model file.
	ErrModelLoad = errors.New("whisper: failed to load model")
	// ErrNoContext is reported when transcribing against a missing or released context.
	ErrNoContext = errors.New("whisper: no context")
	// ErrEngineFailure matches every *EngineError via errors.Is.
	ErrEngineFailure = errors.New("whisper: inference failed")
	// ErrNativeUnavailable indicates the binary was built without the whispercpp tag.
	ErrNativeUnavailable = errors.New("whisper: native backend unavailable")
)

// EngineError carries the nonzero status returned by whisper_full.
type EngineError struct {
	Code int
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("whisper: inference failed with code %d", e.Code)
}

// Is reports ErrEngineFailure as a match so callers need not know the code.
func (e *EngineError) Is(target error) bool {
	return target == ErrEngineFailure
}

// Backend loads models. Implementations must be safe for concurrent use.
type Backend interface {
	Load(path string) (Model, error)
}

// Model is a single loaded engine context. A Model is not safe for
// concurrent use; Context serialises access to it.
type Model interface {
	// Full runs the complete transcription pass and returns the engine status.
	Full(params Params, samples []float32) int
	// NumSegments reports how many segments the last Full call produced.
	NumSegments() int
	// SegmentText returns the text of segment i from the last Full call.
	SegmentText(i int) string
	// Free releases the engine resources. It is called at most once.
	Free()
}
