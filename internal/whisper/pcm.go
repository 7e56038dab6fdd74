package whisper

import "encoding/binary"

// PCM16ToFloat32 converts little-endian signed 16-bit PCM into normalised
// float32 samples. A trailing odd byte is ignored.
func PCM16ToFloat32(buf []byte) []float32 {
	n := len(buf) / 2
	if n == 0 {
		return nil
	}
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		u := binary.LittleEndian.Uint16(buf[2*i:])
		samples[i] = float32(int16(u)) / 32768.0
	}
	return samples
}

// Int16ToFloat32 converts signed 16-bit samples into normalised float32 samples.
func Int16ToFloat32(in []int16) []float32 {
	if len(in) == 0 {
		return nil
	}
	samples := make([]float32, len(in))
	for i, v := range in {
		samples[i] = float32(v) / 32768.0
	}
	return samples
}
