package audio

import "errors"

const (
	// RecordSampleRate is the capture rate; it matches what whisper.cpp expects.
	RecordSampleRate = 16000
	framesPerBuffer  = 1024
)

var (
	// ErrRecorderUnavailable is returned when the binary was built without portaudio.
	ErrRecorderUnavailable = errors.New("audio: microphone capture not available: rebuild with -tags portaudio")
	// ErrNotRecording is returned by Stop when Start was never called.
	ErrNotRecording = errors.New("audio: recorder is not running")
	// ErrAlreadyRecording is returned by Start when capture is already running.
	ErrAlreadyRecording = errors.New("audio: recorder already running")
)
