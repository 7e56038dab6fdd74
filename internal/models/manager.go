// Package models resolves and downloads ggml model files for whisper.cpp.
package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pauvepe/whispervoice/internal/appinfo"
)

var (
	// ErrModelNotFound indicates that no model file exists for the request.
	ErrModelNotFound = errors.New("models: model not found")
	// ErrUnknownVariant indicates the variant is absent from the manifest.
	ErrUnknownVariant = errors.New("models: unknown variant")
	// ErrChecksumMismatch is returned when a download does not match the manifest.
	ErrChecksumMismatch = errors.New("models: checksum mismatch")
)

// Manager stores model files under <baseDir>/models.
type Manager struct {
	baseDir   string
	modelsDir string
	log       *slog.Logger

	// HTTPClient is used for downloads; a client with a generous timeout is
	// installed by NewManager.
	HTTPClient *http.Client
}

// EnsureOptions configures EnsureVariant.
type EnsureOptions struct {
	Manifest Manifest
	// Override points at an existing model file and skips the manifest.
	Override string
	// Progress, when set, receives download progress in percent (0-100).
	Progress func(percent int)
}

// NewManager creates the models directory below baseDir.
func NewManager(baseDir string, logger *slog.Logger) (*Manager, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("models: base directory required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	modelsDir := filepath.Join(baseDir, "models")
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return nil, fmt.Errorf("models: create %s: %w", modelsDir, err)
	}
	return &Manager{
		baseDir:    baseDir,
		modelsDir:  modelsDir,
		log:        logger.With("component", "models.Manager"),
		HTTPClient: &http.Client{Timeout: 30 * time.Minute},
	}, nil
}

// ModelsDir returns the directory holding downloaded models.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// Resolve returns an existing model path: the override when given, otherwise
// the manifest file for variant inside ModelsDir.
func (m *Manager) Resolve(variant, override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return existingFile(override)
	}
	manifest, err := DefaultManifest()
	if err != nil {
		return "", err
	}
	entry, ok := manifest.Variants[variant]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	return existingFile(filepath.Join(m.modelsDir, entry.Filename))
}

// EnsureVariant returns the path of the variant's model file, downloading it
// first when it is missing or has the wrong size.
func (m *Manager) EnsureVariant(ctx context.Context, variant string, opts EnsureOptions) (string, error) {
	if override := strings.TrimSpace(opts.Override); override != "" {
		return existingFile(override)
	}

	entry, ok := opts.Manifest.Variants[variant]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}

	path := filepath.Join(m.modelsDir, entry.Filename)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		if entry.SizeBytes == 0 || info.Size() == entry.SizeBytes {
			m.log.Debug("model present", "variant", variant, "path", path)
			return path, nil
		}
		m.log.Warn("model size mismatch; downloading again",
			"variant", variant,
			"path", path,
			"size", info.Size(),
			"expected_size", entry.SizeBytes,
		)
	}

	if entry.URL == "" {
		return "", fmt.Errorf("%w: %s has no download URL", ErrModelNotFound, variant)
	}
	if err := m.download(ctx, entry, path, opts.Progress); err != nil {
		return "", err
	}
	return path, nil
}

func (m *Manager) download(ctx context.Context, entry Variant, dest string, progress func(int)) (err error) {
	m.log.Info("downloading model", "url", entry.URL, "path", dest)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return fmt.Errorf("models: build request: %w", err)
	}
	req.Header.Set("User-Agent", appinfo.UserAgent())
	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("models: download %s: %w", entry.Filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("models: download %s: unexpected status %s", entry.Filename, resp.Status)
	}

	tmp, err := os.CreateTemp(m.modelsDir, entry.Filename+".*.part")
	if err != nil {
		return fmt.Errorf("models: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	hasher := sha256.New()
	counter := &progressWriter{total: resp.ContentLength, report: progress, last: -1}
	written, err := io.Copy(io.MultiWriter(tmp, hasher, counter), resp.Body)
	if err != nil {
		return fmt.Errorf("models: write %s: %w", entry.Filename, err)
	}
	if entry.SizeBytes > 0 && written != entry.SizeBytes {
		return fmt.Errorf("%w: %s size %d, want %d", ErrChecksumMismatch, entry.Filename, written, entry.SizeBytes)
	}
	sum := hex.EncodeToString(hasher.Sum(nil))
	if entry.SHA256 != "" && !strings.EqualFold(sum, entry.SHA256) {
		return fmt.Errorf("%w: %s sha256 %s, want %s", ErrChecksumMismatch, entry.Filename, sum, entry.SHA256)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("models: close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("models: move %s into place: %w", entry.Filename, err)
	}

	if progress != nil && counter.last < 100 {
		progress(100)
	}
	m.log.Info("model downloaded",
		"path", dest,
		"bytes", written,
		"sha256", sum,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

type progressWriter struct {
	total   int64
	written int64
	last    int
	report  func(int)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.report != nil && p.total > 0 {
		percent := int(p.written * 100 / p.total)
		if percent != p.last {
			p.last = percent
			p.report(percent)
		}
	}
	return len(b), nil
}

func existingFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return "", fmt.Errorf("models: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrModelNotFound, path)
	}
	return path, nil
}
