package whisper

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Context owns one loaded model. It is created by Open and released by Close;
// once closed it reports OutcomeNoContext for every transcription.
type Context struct {
	mu     sync.Mutex
	model  Model
	params Params
	path   string
	log    *slog.Logger
}

// Open asks the backend to load the model at path. The parameter bundle is
// validated once here and reused for every Transcribe call.
func Open(backend Backend, path string, params Params, logger *slog.Logger) (*Context, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "whisper.context")

	if strings.TrimSpace(path) == "" {
		return nil, ErrModelPathRequired
	}
	if backend == nil {
		return nil, fmt.Errorf("whisper: backend required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	log.Info("loading model", "model_path", path)
	start := time.Now()
	model, err := backend.Load(path)
	if err != nil {
		log.Error("failed to load model", "model_path", path, "error", err)
		return nil, err
	}
	if model == nil {
		log.Error("failed to load model", "model_path", path)
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, path)
	}
	log.Info("model loaded",
		"model_path", path,
		"duration_ms", time.Since(start).Milliseconds(),
		"threads", params.Threads,
		"language", params.Language,
		"strategy", params.Strategy.String(),
	)

	return &Context{
		model:  model,
		params: params,
		path:   path,
		log:    log.With("model_path", path),
	}, nil
}

// Params returns the parameter bundle used for transcription.
func (c *Context) Params() Params {
	return c.params
}

// Path returns the model file the context was loaded from.
func (c *Context) Path() string {
	return c.path
}

// Closed reports whether the model has been released.
func (c *Context) Closed() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model == nil
}

// Close releases the model. Only the first call reaches the engine.
func (c *Context) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	model := c.model
	c.model = nil
	c.mu.Unlock()

	if model == nil {
		return nil
	}
	model.Free()
	c.log.Info("model released")
	return nil
}

// Transcribe runs one synchronous full transcription over samples, which must
// be mono float32 at SampleRate. The slice is only read for the duration of
// the call. Calls on the same Context are serialised.
func (c *Context) Transcribe(samples []float32) Result {
	if c == nil {
		return Result{Outcome: OutcomeNoContext}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil {
		return Result{Outcome: OutcomeNoContext}
	}
	if len(samples) == 0 {
		c.log.Debug("empty audio buffer; skipping inference")
		return Result{Outcome: OutcomeOK}
	}

	c.log.Info("transcribing", "samples", len(samples))
	start := time.Now()
	if status := c.model.Full(c.params, samples); status != 0 {
		c.log.Error("transcription failed", "status", status, "samples", len(samples))
		return Result{Outcome: OutcomeEngineFailure, Status: status}
	}

	count := c.model.NumSegments()
	var builder strings.Builder
	for i := 0; i < count; i++ {
		builder.WriteString(c.model.SegmentText(i))
	}
	text := builder.String()

	c.log.Info("transcription result",
		"segments", count,
		"duration_ms", time.Since(start).Milliseconds(),
		"text", text,
	)
	return Result{Outcome: OutcomeOK, Text: text, Segments: count}
}
