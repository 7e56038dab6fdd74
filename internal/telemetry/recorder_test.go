package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pauvepe/whispervoice/internal/whisper"
)

func TestRecorderSnapshot(t *testing.T) {
	recorder := NewRecorder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if snapshot := recorder.Snapshot(); snapshot != (Snapshot{}) {
		t.Fatalf("expected empty snapshot, got %+v", snapshot)
	}

	recorder.RecordLoad("/models/ggml-tiny.bin", nil)
	recorder.RecordLoad("/models/missing.bin", errors.New("boom"))

	call := recorder.StartTranscription("req-1", 1, 16000)
	call.Finish(whisper.Result{Outcome: whisper.OutcomeOK, Text: "hello", Segments: 1})
	call.Finish(whisper.Result{Outcome: whisper.OutcomeEngineFailure})

	cached := recorder.StartTranscription("req-2", 1, 16000)
	cached.RecordCacheHit()
	cached.Finish(whisper.Result{Outcome: whisper.OutcomeOK, Text: "hello"})

	recorder.StartTranscription("req-3", 0, 10).Finish(whisper.Result{Outcome: whisper.OutcomeNoContext})
	recorder.StartTranscription("req-4", 1, 0).Finish(whisper.Result{Outcome: whisper.OutcomeEngineFailure, Status: 2})

	recorder.RecordFree(true)
	recorder.RecordFree(false)

	snapshot := recorder.Snapshot()
	if snapshot.ModelsLoaded != 1 || snapshot.LoadFailures != 1 {
		t.Fatalf("unexpected load counters: %+v", snapshot)
	}
	if snapshot.ModelsFreed != 1 || snapshot.LiveContexts != 0 {
		t.Fatalf("unexpected free counters: %+v", snapshot)
	}
	if snapshot.TotalTranscriptions != 4 {
		t.Fatalf("unexpected TotalTranscriptions: %d", snapshot.TotalTranscriptions)
	}
	if snapshot.TotalSucceeded != 2 || snapshot.TotalNoContext != 1 || snapshot.TotalEngineFailures != 1 {
		t.Fatalf("unexpected outcome counters: %+v", snapshot)
	}
	if snapshot.TotalSamples != 32010 {
		t.Fatalf("unexpected TotalSamples: %d", snapshot.TotalSamples)
	}
	if snapshot.TotalCacheHits != 1 {
		t.Fatalf("unexpected TotalCacheHits: %d", snapshot.TotalCacheHits)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var recorder *Recorder
	recorder.RecordLoad("x", nil)
	recorder.RecordFree(true)
	call := recorder.StartTranscription("req", 1, 1)
	call.RecordCacheHit()
	call.Finish(whisper.Result{})
	if recorder.Snapshot() != (Snapshot{}) {
		t.Fatal("expected empty snapshot from nil recorder")
	}
}
