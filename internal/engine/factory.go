// Package engine selects the whisper backend and model file for a process.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pauvepe/whispervoice/internal/config"
	"github.com/pauvepe/whispervoice/internal/models"
	"github.com/pauvepe/whispervoice/internal/whisper"
)

// Selection is the backend and default model chosen for a process.
type Selection struct {
	Backend   whisper.Backend
	ModelPath string
	Native    bool
}

// New resolves the configured model and returns a backend for it. It falls
// back to the stub backend when the native backend is unavailable or the
// model cannot be ensured locally; the returned error then explains why.
func New(ctx context.Context, cfg config.Config, manager *models.Manager, logger *slog.Logger) (Selection, error) {
	manifest, err := models.DefaultManifest()
	if err != nil {
		return newSelection(ctx, cfg, manager, logger, models.EnsureOptions{Override: cfg.ModelPath})
	}
	return newSelection(ctx, cfg, manager, logger, models.EnsureOptions{
		Manifest: manifest,
		Override: cfg.ModelPath,
	})
}

func newSelection(ctx context.Context, cfg config.Config, manager *models.Manager, logger *slog.Logger, ensure models.EnsureOptions) (Selection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine")

	if cfg.UseStubEngine {
		logger.Warn("stub engine forced by configuration")
		return stubSelection(cfg), nil
	}

	if manager == nil {
		logger.Warn("model manager unavailable; using stub engine")
		return stubSelection(cfg), whisper.ErrNativeUnavailable
	}

	if len(ensure.Manifest.Variants) == 0 && strings.TrimSpace(ensure.Override) == "" {
		return stubSelection(cfg), errors.New("models: manifest is empty")
	}

	modelPath, err := manager.EnsureVariant(ctx, cfg.ModelVariant, ensure)
	if err != nil {
		logger.Warn("model ensure failed; using stub engine", "error", err)
		return stubSelection(cfg), err
	}

	if !whisper.NativeAvailable() {
		logger.Warn("native backend disabled at build time; using stub engine", "model_path", modelPath)
		return Selection{Backend: whisper.NewStubBackend(), ModelPath: modelPath}, whisper.ErrNativeUnavailable
	}

	backend, err := whisper.NewNativeBackend(whisper.NativeOptions{UseGPU: cfg.UseGPU})
	if err != nil {
		logger.Error("native backend initialisation failed; using stub", "error", err, "model_path", modelPath)
		return Selection{Backend: whisper.NewStubBackend(), ModelPath: modelPath}, err
	}
	logger.Info("native backend ready", "model_path", modelPath)
	return Selection{Backend: backend, ModelPath: modelPath, Native: true}, nil
}

// stubSelection accepts any model path so that forced-stub deployments need
// no model file on disk.
func stubSelection(cfg config.Config) Selection {
	path := strings.TrimSpace(cfg.ModelPath)
	if path == "" {
		path = "stub:" + cfg.ModelVariant
	}
	return Selection{Backend: &whisper.StubBackend{}, ModelPath: path}
}
