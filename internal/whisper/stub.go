package whisper

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// StubBackend produces deterministic transcripts without invoking whisper.cpp.
// Segments, when set, are reported verbatim by every successful Full call;
// otherwise a single placeholder segment describing the input is produced.
type StubBackend struct {
	Segments []string
	// Status is returned by Full; nonzero simulates an engine failure.
	Status int
	// RequireFile makes Load fail for paths that do not exist on disk.
	RequireFile bool

	loads atomic.Int64
	frees atomic.Int64
	calls atomic.Int64
}

// NewStubBackend returns a stub that only loads existing files.
func NewStubBackend(segments ...string) *StubBackend {
	return &StubBackend{Segments: segments, RequireFile: true}
}

// Load implements Backend.
func (b *StubBackend) Load(path string) (Model, error) {
	if b.RequireFile {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrModelLoad, path)
			}
			return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrModelLoad, path)
		}
	}
	b.loads.Add(1)
	return &stubModel{backend: b}, nil
}

// Loads reports how many models were loaded.
func (b *StubBackend) Loads() int64 { return b.loads.Load() }

// Frees reports how many models were released.
func (b *StubBackend) Frees() int64 { return b.frees.Load() }

// Calls reports how many Full calls reached the stub.
func (b *StubBackend) Calls() int64 { return b.calls.Load() }

type stubModel struct {
	backend *StubBackend

	mu       sync.Mutex
	segments []string
	freed    bool
}

func (m *stubModel) Full(params Params, samples []float32) int {
	m.backend.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	m.segments = nil
	if m.freed {
		return -1
	}
	if m.backend.Status != 0 {
		return m.backend.Status
	}
	if m.backend.Segments != nil {
		m.segments = append([]string(nil), m.backend.Segments...)
		return 0
	}
	m.segments = []string{fmt.Sprintf("[stub:%s] %d samples", params.Language, len(samples))}
	return 0
}

func (m *stubModel) NumSegments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.segments)
}

func (m *stubModel) SegmentText(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.segments) {
		return ""
	}
	return m.segments[i]
}

func (m *stubModel) Free() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.freed {
		return
	}
	m.freed = true
	m.segments = nil
	m.backend.frees.Add(1)
}
