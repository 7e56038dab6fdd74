package server

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pauvepe/whispervoice/internal/binding"
	"github.com/pauvepe/whispervoice/internal/config"
	"github.com/pauvepe/whispervoice/internal/telemetry"
	"github.com/pauvepe/whispervoice/internal/whisper"
)

// Server implements TranscriberServer on top of a binding.Registry.
type Server struct {
	cfg          config.Config
	log          *slog.Logger
	registry     *binding.Registry
	metrics      *telemetry.Recorder
	cache        *lru.Cache[cacheKey, whisper.Result]
	defaultModel string
}

type cacheKey struct {
	token  int64
	digest [sha256.Size]byte
}

// New returns a Server. defaultModel is loaded when Initialize is called
// without a model path.
func New(cfg config.Config, logger *slog.Logger, registry *binding.Registry, metrics *telemetry.Recorder, defaultModel string) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		panic("server: registry must not be nil")
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger)
	}

	s := &Server{
		cfg: cfg,
		log: logger.With(
			"component", "server",
			"model_variant", cfg.ModelVariant,
			"language", cfg.Language,
		),
		registry:     registry,
		metrics:      metrics,
		defaultModel: defaultModel,
	}
	if cfg.TranscriptCacheSize > 0 {
		cache, err := lru.New[cacheKey, whisper.Result](cfg.TranscriptCacheSize)
		if err != nil {
			return nil, fmt.Errorf("server: create transcript cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Initialize loads a model and returns its token.
func (s *Server) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	path := strings.TrimSpace(req.ModelPath)
	if path == "" {
		path = s.defaultModel
	}
	if path == "" {
		return nil, status.Error(codes.InvalidArgument, "model path required")
	}

	token, err := s.registry.Open(path)
	s.metrics.RecordLoad(path, err)
	if err != nil {
		if errors.Is(err, whisper.ErrModelPathRequired) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	s.log.Info("model initialised", "model_path", path, "token", token)
	return &InitializeResponse{Token: token}, nil
}

// Free releases a token. Unknown tokens are reported as not released.
func (s *Server) Free(ctx context.Context, req *FreeRequest) (*FreeResponse, error) {
	released := s.registry.Release(req.Token)
	s.metrics.RecordFree(released)
	if released {
		s.purgeCache(req.Token)
	}
	return &FreeResponse{Released: released}, nil
}

// Transcribe runs one synchronous transcription. Failures are reported in
// the response outcome rather than as RPC errors.
func (s *Server) Transcribe(ctx context.Context, req *TranscribeRequest) (*TranscribeResponse, error) {
	if len(req.Samples) > 0 && len(req.PCM16) > 0 {
		return nil, status.Error(codes.InvalidArgument, "samples and pcm16 are mutually exclusive")
	}
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	samples := req.Samples
	if len(req.PCM16) > 0 {
		samples = whisper.PCM16ToFloat32(req.PCM16)
	}

	requestID := uuid.NewString()
	call := s.metrics.StartTranscription(requestID, req.Token, len(samples))

	var key cacheKey
	useCache := s.cache != nil && req.Token != 0 && len(samples) > 0
	if useCache {
		key = cacheKey{token: req.Token, digest: digestSamples(samples)}
		if _, live := s.registry.Lookup(req.Token); live {
			if res, ok := s.cache.Get(key); ok {
				call.RecordCacheHit()
				call.Finish(res)
				return newTranscribeResponse(requestID, res, true), nil
			}
		}
	}

	res := s.registry.TranscribeResult(req.Token, samples)
	call.Finish(res)
	if useCache && res.OK() {
		s.cache.Add(key, res)
	}
	return newTranscribeResponse(requestID, res, false), nil
}

func newTranscribeResponse(requestID string, res whisper.Result, cached bool) *TranscribeResponse {
	return &TranscribeResponse{
		RequestID: requestID,
		Text:      res.CompatText(),
		Outcome:   res.Outcome.String(),
		Status:    res.Status,
		Segments:  res.Segments,
		Cached:    cached,
	}
}

func (s *Server) purgeCache(token int64) {
	if s.cache == nil {
		return
	}
	for _, key := range s.cache.Keys() {
		if key.token == token {
			s.cache.Remove(key)
		}
	}
}

func digestSamples(samples []float32) [sha256.Size]byte {
	h := sha256.New()
	var buf [4]byte
	for _, v := range samples {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}
