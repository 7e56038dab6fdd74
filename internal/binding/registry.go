// Package binding exposes loaded whisper contexts to foreign callers as int64
// tokens. Token 0 never designates a live context.
package binding

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pauvepe/whispervoice/internal/whisper"
)

// Component is the fixed log tag for binding lifecycle events.
const Component = "whisper.binding"

// Registry owns every context created through Initialize until it is freed.
// Tokens are handed out from a counter starting at 1 and are never reused.
type Registry struct {
	backend whisper.Backend
	params  whisper.Params
	base    *slog.Logger
	log     *slog.Logger

	next atomic.Int64

	mu       sync.RWMutex
	contexts map[int64]*whisper.Context
}

// NewRegistry returns a Registry that loads models through backend and
// transcribes with params.
func NewRegistry(backend whisper.Backend, params whisper.Params, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		backend:  backend,
		params:   params,
		base:     logger,
		log:      logger.With("component", Component),
		contexts: make(map[int64]*whisper.Context),
	}
}

// Initialize loads the model at modelPath and returns its token, or 0 when the
// engine could not produce a context.
func (r *Registry) Initialize(modelPath string) int64 {
	token, err := r.Open(modelPath)
	if err != nil {
		return 0
	}
	return token
}

// Open is Initialize with the load error preserved.
func (r *Registry) Open(modelPath string) (int64, error) {
	ctx, err := whisper.Open(r.backend, modelPath, r.params, r.base)
	if err != nil {
		return 0, err
	}

	token := r.next.Add(1)
	r.mu.Lock()
	r.contexts[token] = ctx
	r.mu.Unlock()

	r.log.Info("context registered", "model_path", modelPath, "token", token)
	return token, nil
}

// Free releases the context behind token. Zero, unknown and already freed
// tokens are no-ops.
func (r *Registry) Free(token int64) {
	r.Release(token)
}

// Release is Free reporting whether a live context was released.
func (r *Registry) Release(token int64) bool {
	if token == 0 {
		return false
	}
	r.mu.Lock()
	ctx, ok := r.contexts[token]
	delete(r.contexts, token)
	r.mu.Unlock()

	if !ok {
		r.log.Warn("free of unknown token ignored", "token", token)
		return false
	}
	if err := ctx.Close(); err != nil {
		r.log.Warn("failed to release context", "token", token, "error", err)
	}
	r.log.Info("context freed", "token", token)
	return true
}

// Transcribe returns the transcript for samples, or the empty string when the
// token is 0, unknown, or the engine fails.
func (r *Registry) Transcribe(token int64, samples []float32) string {
	return r.TranscribeResult(token, samples).CompatText()
}

// TranscribeResult returns the tagged outcome for samples. A zero or unknown
// token yields OutcomeNoContext without reaching the engine.
func (r *Registry) TranscribeResult(token int64, samples []float32) whisper.Result {
	if token == 0 {
		return whisper.Result{Outcome: whisper.OutcomeNoContext}
	}
	r.mu.RLock()
	ctx := r.contexts[token]
	r.mu.RUnlock()

	if ctx == nil {
		return whisper.Result{Outcome: whisper.OutcomeNoContext}
	}
	return ctx.Transcribe(samples)
}

// Lookup returns the live context for token.
func (r *Registry) Lookup(token int64) (*whisper.Context, bool) {
	if token == 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.contexts[token]
	return ctx, ok
}

// Len reports the number of live contexts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}

// Close frees every live context.
func (r *Registry) Close() error {
	r.mu.Lock()
	contexts := r.contexts
	r.contexts = make(map[int64]*whisper.Context)
	r.mu.Unlock()

	for token, ctx := range contexts {
		if err := ctx.Close(); err != nil {
			r.log.Warn("failed to release context", "token", token, "error", err)
		}
	}
	if len(contexts) > 0 {
		r.log.Info("registry closed", "released", len(contexts))
	}
	return nil
}
