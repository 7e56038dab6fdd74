// Package audio reads and writes PCM16 WAV files and captures microphone
// input for transcription.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned for payloads that are not RIFF/WAVE.
var ErrInvalidWAV = errors.New("audio: invalid wav header")

const (
	formatPCM = 1
	bitDepth  = 16
)

// Clip is decoded mono 16-bit PCM.
type Clip struct {
	SampleRate int
	Samples    []int16
}

// DurationMillis reports the clip length in milliseconds.
func (c Clip) DurationMillis() int64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return int64(len(c.Samples)) * 1000 / int64(c.SampleRate)
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (Clip, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("audio: read wav: %w", err)
	}
	defer fh.Close()
	return decode(fh)
}

// DecodeWAV returns the mono PCM16 payload of an in-memory WAV file.
func DecodeWAV(data []byte) (Clip, error) {
	return decode(bytes.NewReader(data))
}

func decode(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, ErrInvalidWAV
	}
	if dec.WavAudioFormat != formatPCM {
		return Clip{}, fmt.Errorf("audio: unsupported audio format %d", dec.WavAudioFormat)
	}
	if dec.NumChans != 1 {
		return Clip{}, fmt.Errorf("audio: expected mono audio, got %d channels", dec.NumChans)
	}
	if dec.BitDepth != bitDepth {
		return Clip{}, fmt.Errorf("audio: expected 16-bit PCM, got %d", dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("audio: decode pcm: %w", err)
	}
	if buf == nil || buf.Data == nil {
		return Clip{}, fmt.Errorf("audio: no data chunk found")
	}
	if want := dec.PCMSize / 2; len(buf.Data) < want {
		return Clip{}, fmt.Errorf("audio: data chunk truncated: %d of %d samples", len(buf.Data), want)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return Clip{SampleRate: int(dec.SampleRate), Samples: samples}, nil
}

// WriteWAV encodes mono PCM16 samples to w.
func WriteWAV(w io.WriteSeeker, samples []int16, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, formatPCM)
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: finalise wav: %w", err)
	}
	return nil
}

// WriteWAVFile writes samples to a new WAV file at path.
func WriteWAVFile(path string, samples []int16, sampleRate int) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create wav: %w", err)
	}
	defer func() {
		if cerr := fh.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("audio: close wav: %w", cerr)
		}
	}()
	return WriteWAV(fh, samples, sampleRate)
}

// EncodeWAV renders mono PCM16 samples as an in-memory WAV file.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	var buf seekBuffer
	if err := WriteWAV(&buf, samples, sampleRate); err != nil {
		return nil, err
	}
	return buf.data, nil
}

// seekBuffer is an in-memory io.WriteSeeker; the encoder seeks back to
// patch the RIFF and data chunk sizes.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	n := copy(b.data[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(b.pos)
	case io.SeekEnd:
		base = int64(len(b.data))
	default:
		return 0, fmt.Errorf("audio: invalid whence %d", whence)
	}
	next := base + offset
	if next < 0 {
		return 0, errors.New("audio: negative seek position")
	}
	b.pos = int(next)
	return next, nil
}
