package server_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/pauvepe/whispervoice/internal/binding"
	"github.com/pauvepe/whispervoice/internal/config"
	"github.com/pauvepe/whispervoice/internal/server"
	"github.com/pauvepe/whispervoice/internal/telemetry"
	"github.com/pauvepe/whispervoice/internal/whisper"
)

const bufSize = 1024 * 1024

type harness struct {
	client    *server.Client
	backend   *whisper.StubBackend
	metrics   *telemetry.Recorder
	modelPath string
}

func newHarness(t *testing.T, cacheSize int, segments ...string) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	modelPath := filepath.Join(t.TempDir(), "ggml-tiny.bin")
	if err := os.WriteFile(modelPath, []byte("model"), 0o644); err != nil {
		t.Fatalf("write model fixture: %v", err)
	}

	backend := whisper.NewStubBackend(segments...)
	registry := binding.NewRegistry(backend, whisper.DefaultParams(), logger)
	t.Cleanup(func() { registry.Close() })
	metrics := telemetry.NewRecorder(logger)

	cfg := config.Config{
		ListenAddr:          "bufconn",
		ModelVariant:        "tiny",
		Language:            "auto",
		TranscriptCacheSize: cacheSize,
	}
	srv, err := server.New(cfg, logger, registry, metrics, modelPath)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}

	lis := bufconn.Listen(bufSize)
	t.Cleanup(func() { lis.Close() })

	grpcServer := grpc.NewServer()
	server.RegisterTranscriberServer(grpcServer, srv)
	t.Cleanup(grpcServer.Stop)

	go func() {
		if err := grpcServer.Serve(lis); err != nil &&
			!errors.Is(err, grpc.ErrServerStopped) &&
			!errors.Is(err, net.ErrClosed) &&
			err.Error() != "closed" {
			t.Errorf("Serve() error: %v", err)
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufconn",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return &harness{
		client:    server.NewClient(conn),
		backend:   backend,
		metrics:   metrics,
		modelPath: modelPath,
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestInitializeTranscribeFree(t *testing.T) {
	h := newHarness(t, 0, "Hello", " world")
	ctx := testContext(t)

	created, err := h.client.Initialize(ctx, &server.InitializeRequest{ModelPath: h.modelPath})
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	if created.Token == 0 {
		t.Fatal("expected non-zero token")
	}

	resp, err := h.client.Transcribe(ctx, &server.TranscribeRequest{
		Token:   created.Token,
		Samples: make([]float32, whisper.SampleRate),
	})
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if resp.Text != "Hello world" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if resp.Outcome != "ok" {
		t.Fatalf("unexpected outcome %q", resp.Outcome)
	}
	if resp.RequestID == "" {
		t.Fatal("expected request id")
	}

	freed, err := h.client.Free(ctx, &server.FreeRequest{Token: created.Token})
	if err != nil {
		t.Fatalf("Free error: %v", err)
	}
	if !freed.Released {
		t.Fatal("expected token to be released")
	}

	again, err := h.client.Free(ctx, &server.FreeRequest{Token: created.Token})
	if err != nil {
		t.Fatalf("second Free error: %v", err)
	}
	if again.Released {
		t.Fatal("second free must be a no-op")
	}

	stale, err := h.client.Transcribe(ctx, &server.TranscribeRequest{
		Token:   created.Token,
		Samples: make([]float32, 160),
	})
	if err != nil {
		t.Fatalf("Transcribe after free error: %v", err)
	}
	if stale.Outcome != "no_context" || stale.Text != "" {
		t.Fatalf("expected empty no_context result, got %+v", stale)
	}

	snap := h.metrics.Snapshot()
	if snap.ModelsLoaded != 1 || snap.ModelsFreed != 1 || snap.LiveContexts != 0 {
		t.Fatalf("unexpected lifecycle metrics: %+v", snap)
	}
	if snap.TotalTranscriptions != 2 || snap.TotalSucceeded != 1 || snap.TotalNoContext != 1 {
		t.Fatalf("unexpected transcription metrics: %+v", snap)
	}
}

func TestInitializeUsesDefaultModel(t *testing.T) {
	h := newHarness(t, 0)
	ctx := testContext(t)

	created, err := h.client.Initialize(ctx, &server.InitializeRequest{})
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	if created.Token == 0 {
		t.Fatal("expected default model to load")
	}
}

func TestInitializeMissingModel(t *testing.T) {
	h := newHarness(t, 0)
	ctx := testContext(t)

	_, err := h.client.Initialize(ctx, &server.InitializeRequest{
		ModelPath: filepath.Join(t.TempDir(), "missing.bin"),
	})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
	if snap := h.metrics.Snapshot(); snap.LoadFailures != 1 {
		t.Fatalf("expected one load failure, got %+v", snap)
	}
}

func TestTranscribeRejectsBothPayloads(t *testing.T) {
	h := newHarness(t, 0)
	ctx := testContext(t)

	_, err := h.client.Transcribe(ctx, &server.TranscribeRequest{
		Token:   1,
		Samples: []float32{0},
		PCM16:   []byte{0, 0},
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestTranscribePCM16Payload(t *testing.T) {
	h := newHarness(t, 0)
	ctx := testContext(t)

	created, err := h.client.Initialize(ctx, &server.InitializeRequest{ModelPath: h.modelPath})
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	resp, err := h.client.Transcribe(ctx, &server.TranscribeRequest{
		Token: created.Token,
		PCM16: make([]byte, 320),
	})
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if resp.Text != "[stub:auto] 160 samples" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
}

func TestTranscribeEngineFailure(t *testing.T) {
	h := newHarness(t, 0)
	h.backend.Status = -7
	ctx := testContext(t)

	created, err := h.client.Initialize(ctx, &server.InitializeRequest{ModelPath: h.modelPath})
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	resp, err := h.client.Transcribe(ctx, &server.TranscribeRequest{
		Token:   created.Token,
		Samples: make([]float32, 160),
	})
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if resp.Outcome != "engine_failure" || resp.Status != -7 || resp.Text != "" {
		t.Fatalf("unexpected engine failure response %+v", resp)
	}
}

func TestTranscriptCache(t *testing.T) {
	h := newHarness(t, 8, "cac", "hed")
	ctx := testContext(t)

	created, err := h.client.Initialize(ctx, &server.InitializeRequest{ModelPath: h.modelPath})
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	req := &server.TranscribeRequest{Token: created.Token, Samples: []float32{0.1, 0.2, 0.3}}

	first, err := h.client.Transcribe(ctx, req)
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	second, err := h.client.Transcribe(ctx, req)
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if first.Cached || !second.Cached {
		t.Fatalf("expected second call to hit cache: first=%v second=%v", first.Cached, second.Cached)
	}
	if second.Text != "cached" {
		t.Fatalf("unexpected cached text %q", second.Text)
	}
	if first.Segments != 2 || second.Segments != first.Segments || second.Outcome != first.Outcome {
		t.Fatalf("cached response differs from computed one: first=%+v second=%+v", first, second)
	}
	if calls := h.backend.Calls(); calls != 1 {
		t.Fatalf("expected one engine call, got %d", calls)
	}

	if _, err := h.client.Free(ctx, &server.FreeRequest{Token: created.Token}); err != nil {
		t.Fatalf("Free error: %v", err)
	}
	stale, err := h.client.Transcribe(ctx, req)
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if stale.Cached || stale.Outcome != "no_context" {
		t.Fatalf("freed token must not be served from cache: %+v", stale)
	}
	if hits := h.metrics.Snapshot().TotalCacheHits; hits != 1 {
		t.Fatalf("expected one cache hit, got %d", hits)
	}
}
