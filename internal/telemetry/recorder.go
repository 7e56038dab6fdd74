package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/pauvepe/whispervoice/internal/whisper"
)

// Recorder tracks process-level counters for model lifecycle and transcription.
type Recorder struct {
	log *slog.Logger

	modelsLoaded          atomic.Uint64
	loadFailures          atomic.Uint64
	modelsFreed           atomic.Uint64
	liveContexts          atomic.Int64
	totalTranscriptions   atomic.Uint64
	totalSucceeded        atomic.Uint64
	totalNoContext        atomic.Uint64
	totalEngineFailures   atomic.Uint64
	totalSamples          atomic.Uint64
	totalCacheHits        atomic.Uint64
	inferenceMicroseconds atomic.Uint64
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	ModelsLoaded        uint64
	LoadFailures        uint64
	ModelsFreed         uint64
	LiveContexts        int64
	TotalTranscriptions uint64
	TotalSucceeded      uint64
	TotalNoContext      uint64
	TotalEngineFailures uint64
	TotalSamples        uint64
	TotalCacheHits      uint64
	InferenceTime       time.Duration
}

// NewRecorder constructs a Recorder using the provided logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log: logger.With("component", "telemetry.Recorder"),
	}
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		ModelsLoaded:        r.modelsLoaded.Load(),
		LoadFailures:        r.loadFailures.Load(),
		ModelsFreed:         r.modelsFreed.Load(),
		LiveContexts:        r.liveContexts.Load(),
		TotalTranscriptions: r.totalTranscriptions.Load(),
		TotalSucceeded:      r.totalSucceeded.Load(),
		TotalNoContext:      r.totalNoContext.Load(),
		TotalEngineFailures: r.totalEngineFailures.Load(),
		TotalSamples:        r.totalSamples.Load(),
		TotalCacheHits:      r.totalCacheHits.Load(),
		InferenceTime:       time.Duration(r.inferenceMicroseconds.Load()) * time.Microsecond,
	}
}

// RecordLoad counts a model load attempt.
func (r *Recorder) RecordLoad(modelPath string, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.loadFailures.Add(1)
		r.log.Debug("model load failed", "model_path", modelPath, "error", err)
		return
	}
	r.modelsLoaded.Add(1)
	r.liveContexts.Add(1)
	r.log.Debug("model load recorded", "model_path", modelPath)
}

// RecordFree counts a released context. Frees of unknown tokens are not counted.
func (r *Recorder) RecordFree(released bool) {
	if r == nil || !released {
		return
	}
	r.modelsFreed.Add(1)
	r.liveContexts.Add(-1)
}

// TranscriptionMetrics accumulates statistics for a single transcription call.
type TranscriptionMetrics struct {
	recorder *Recorder
	log      *slog.Logger

	samples  int
	started  time.Time
	cacheHit bool
	closed   atomic.Bool
}

// StartTranscription begins tracking one call.
func (r *Recorder) StartTranscription(requestID string, token int64, samples int) *TranscriptionMetrics {
	if r == nil {
		return nil
	}
	r.totalTranscriptions.Add(1)
	if samples > 0 {
		r.totalSamples.Add(uint64(samples))
	}
	return &TranscriptionMetrics{
		recorder: r,
		log: r.log.With(
			"request_id", requestID,
			"token", token,
		),
		samples: samples,
		started: time.Now(),
	}
}

// RecordCacheHit marks the call as served from the transcript cache.
func (t *TranscriptionMetrics) RecordCacheHit() {
	if t == nil {
		return
	}
	t.cacheHit = true
	t.recorder.totalCacheHits.Add(1)
}

// Finish records the outcome and logs a summary. Only the first call counts.
func (t *TranscriptionMetrics) Finish(res whisper.Result) {
	if t == nil {
		return
	}
	if !t.closed.CompareAndSwap(false, true) {
		return
	}

	duration := time.Since(t.started)
	if !t.cacheHit {
		t.recorder.inferenceMicroseconds.Add(uint64(duration.Microseconds()))
	}

	args := []any{
		"outcome", res.Outcome.String(),
		"duration_ms", duration.Milliseconds(),
		"samples", t.samples,
		"segments", res.Segments,
		"cache_hit", t.cacheHit,
		"runes", utf8.RuneCountInString(res.Text),
	}

	switch res.Outcome {
	case whisper.OutcomeOK:
		t.recorder.totalSucceeded.Add(1)
		t.log.Debug("transcription completed", args...)
	case whisper.OutcomeNoContext:
		t.recorder.totalNoContext.Add(1)
		t.log.Debug("transcription without context", args...)
	case whisper.OutcomeEngineFailure:
		t.recorder.totalEngineFailures.Add(1)
		t.log.Error("transcription failed", append(args, "status", res.Status)...)
	}
}
