//go:build !portaudio

package audio

import "log/slog"

// Recorder is a stub used when portaudio is not compiled in.
type Recorder struct {
	log *slog.Logger
}

// NewRecorder returns a Recorder whose Start always fails.
func NewRecorder(sampleRate int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{log: logger.With("component", "audio.recorder")}
}

func (r *Recorder) Start() error {
	return ErrRecorderUnavailable
}

func (r *Recorder) Stop() ([]int16, error) {
	return nil, ErrNotRecording
}
