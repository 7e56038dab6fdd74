package main

import (
	"io"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/pauvepe/whispervoice/internal/binding"
	"github.com/pauvepe/whispervoice/internal/config"
	"github.com/pauvepe/whispervoice/internal/logging"
	"github.com/pauvepe/whispervoice/internal/whisper"
)

var (
	once      sync.Once
	registry  *binding.Registry
	logCloser io.Closer
)

// shared builds the process-wide registry on first use. The log file stays
// open for the life of the process.
func shared() *binding.Registry {
	once.Do(func() {
		registry, logCloser = newRegistry(config.Loader{})
	})
	return registry
}

// newRegistry reads backend and logging settings through loader. Invalid
// configuration falls back to defaults. Transcription always uses the fixed
// parameter bundle from whisper.DefaultParams.
func newRegistry(loader config.Loader) (*binding.Registry, io.Closer) {
	cfg, err := loader.Load()
	if err != nil {
		slog.Warn("invalid configuration; using defaults", "error", err)
		cfg, err = config.Loader{Lookup: noEnv}.Load()
		if err != nil {
			slog.Error("default configuration rejected; using stub backend", "error", err)
			return binding.NewRegistry(whisper.NewStubBackend(), whisper.DefaultParams(), slog.Default()), nopCloser{}
		}
	}
	logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	var backend whisper.Backend = whisper.NewStubBackend()
	if cfg.UseStubEngine {
		logger.Warn("stub engine forced by configuration")
	} else if native, err := whisper.NewNativeBackend(whisper.NativeOptions{UseGPU: cfg.UseGPU}); err != nil {
		logger.Error("native backend unavailable; using stub", "error", err)
	} else {
		backend = native
	}
	return binding.NewRegistry(backend, whisper.DefaultParams(), logger), closer
}

func noEnv(string) (string, bool) { return "", false }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// initialize loads the model at path; a nil path yields token 0.
func initialize(r *binding.Registry, path *string) int64 {
	if path == nil {
		return 0
	}
	return r.Initialize(*path)
}

func free(r *binding.Registry, token int64) {
	if token == 0 {
		return
	}
	r.Free(token)
}

func transcribe(r *binding.Registry, token int64, samples []float32) string {
	if token == 0 {
		return ""
	}
	return r.Transcribe(token, samples)
}

// transcribeResult returns the compatible text plus the outcome tag and
// engine status.
func transcribeResult(r *binding.Registry, token int64, samples []float32) (string, int32, int32) {
	res := r.TranscribeResult(token, samples)
	return res.CompatText(), int32(res.Outcome), int32(res.Status)
}

// view borrows the caller's buffer for the duration of one call.
func view(samples unsafe.Pointer, count int32) []float32 {
	if samples == nil || count <= 0 {
		return nil
	}
	return unsafe.Slice((*float32)(samples), int(count))
}
