//go:build whispercpp

package whisper_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pauvepe/whispervoice/internal/audio"
	"github.com/pauvepe/whispervoice/internal/whisper"
)

func TestNativeTranscribesFixture(t *testing.T) {
	if !whisper.NativeAvailable() {
		t.Skip("native backend not available")
	}

	ctx := openTestNativeContext(t)
	clip := loadTestAudio(t)

	res := ctx.Transcribe(clip)
	if !res.OK() {
		t.Fatalf("transcription failed: %v", res.Err())
	}
	if strings.TrimSpace(res.Text) == "" {
		t.Fatal("expected non-empty transcript for speech fixture")
	}

	again := ctx.Transcribe(clip)
	if again.Text != res.Text {
		t.Fatalf("greedy decoding not deterministic: %q vs %q", res.Text, again.Text)
	}
}

func TestNativeLoadMissingModel(t *testing.T) {
	backend, err := whisper.NewNativeBackend(whisper.NativeOptions{})
	if err != nil {
		t.Fatalf("NewNativeBackend: %v", err)
	}
	_, err = whisper.Open(backend, filepath.Join(t.TempDir(), "missing.bin"), whisper.DefaultParams(), nil)
	if !errors.Is(err, whisper.ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad, got %v", err)
	}
}

func openTestNativeContext(tb testing.TB) *whisper.Context {
	tb.Helper()

	modelPath := locateFixture(tb, filepath.Join("testdata", "models", "ggml-tiny.bin"),
		"run `go run ./cmd/tools/download_model --variant tiny --dir testdata`")
	backend, err := whisper.NewNativeBackend(whisper.NativeOptions{})
	if err != nil {
		tb.Fatalf("NewNativeBackend: %v", err)
	}
	ctx, err := whisper.Open(backend, modelPath, whisper.DefaultParams(), nil)
	if err != nil {
		tb.Fatalf("Open: %v", err)
	}
	tb.Cleanup(func() {
		if cerr := ctx.Close(); cerr != nil {
			tb.Errorf("Close: %v", cerr)
		}
	})
	return ctx
}

func loadTestAudio(tb testing.TB) []float32 {
	tb.Helper()
	path := locateFixture(tb, filepath.Join("testdata", "test.wav"), "")
	clip, err := audio.ReadWAVFile(path)
	if err != nil {
		tb.Fatalf("ReadWAVFile: %v", err)
	}
	if clip.SampleRate != whisper.SampleRate {
		tb.Fatalf("unexpected sample rate: got %d, want %d", clip.SampleRate, whisper.SampleRate)
	}
	return whisper.Int16ToFloat32(clip.Samples)
}

func locateFixture(tb testing.TB, relativePath string, suggestion string) string {
	tb.Helper()

	wd, err := os.Getwd()
	if err != nil {
		tb.Fatalf("getwd: %v", err)
	}

	visited := make([]string, 0, 4)
	for {
		candidate := filepath.Join(wd, relativePath)
		visited = append(visited, candidate)

		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			tb.Fatalf("stat %s: %v", candidate, err)
		}

		parent := filepath.Dir(wd)
		if parent == wd {
			msg := fmt.Sprintf("fixture %s not found (checked: %s)", relativePath, strings.Join(visited, ", "))
			if suggestion != "" {
				msg = fmt.Sprintf("%s; %s", msg, suggestion)
			}
			tb.Skip(msg)
		}
		wd = parent
	}
}
