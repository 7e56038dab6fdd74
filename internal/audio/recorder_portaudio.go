//go:build portaudio

package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Recorder captures mono PCM16 from the default input device.
type Recorder struct {
	sampleRate int
	log        *slog.Logger

	mu        sync.Mutex
	stream    *portaudio.Stream
	buffer    []int16
	recording bool
	done      chan struct{}
}

// NewRecorder returns a Recorder capturing at sampleRate (RecordSampleRate when <= 0).
func NewRecorder(sampleRate int, logger *slog.Logger) *Recorder {
	if sampleRate <= 0 {
		sampleRate = RecordSampleRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		sampleRate: sampleRate,
		log:        logger.With("component", "audio.recorder"),
	}
}

// Start opens the default input stream and begins buffering samples.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audio: initializing portaudio: %w", err)
	}

	frame := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), len(frame), frame)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("audio: opening stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("audio: starting stream: %w", err)
	}

	r.stream = stream
	r.buffer = make([]int16, 0, r.sampleRate*30)
	r.recording = true
	r.done = make(chan struct{})

	go r.capture(stream, frame, r.done)

	r.log.Info("recording started", "sample_rate", r.sampleRate)
	return nil
}

func (r *Recorder) capture(stream *portaudio.Stream, frame []int16, done chan struct{}) {
	defer close(done)
	for {
		r.mu.Lock()
		running := r.recording
		r.mu.Unlock()
		if !running {
			return
		}

		if err := stream.Read(); err != nil {
			r.log.Warn("read from input stream failed", "error", err)
			return
		}

		r.mu.Lock()
		r.buffer = append(r.buffer, frame...)
		r.mu.Unlock()
	}
}

// Stop ends the capture and returns every sample buffered since Start.
func (r *Recorder) Stop() ([]int16, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	r.recording = false
	done := r.done
	stream := r.stream
	r.mu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		r.log.Warn("capture loop did not stop in time")
	}

	if err := stream.Stop(); err != nil {
		r.log.Warn("failed to stop input stream", "error", err)
	}
	stream.Close()
	portaudio.Terminate()

	r.mu.Lock()
	samples := r.buffer
	r.buffer = nil
	r.stream = nil
	r.mu.Unlock()

	r.log.Info("recording stopped", "samples", len(samples))
	return samples, nil
}
