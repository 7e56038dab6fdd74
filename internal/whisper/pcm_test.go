package whisper

import "testing"

func TestPCM16ToFloat32(t *testing.T) {
	// 0, 16384, -32768, 32767 plus a dangling byte
	buf := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x80, 0xff, 0x7f, 0x01}
	got := PCM16ToFloat32(buf)
	want := []float32{0, 0.5, -1, 32767.0 / 32768.0}
	if len(got) != len(want) {
		t.Fatalf("unexpected length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPCM16ToFloat32Empty(t *testing.T) {
	if got := PCM16ToFloat32([]byte{0x01}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestInt16ToFloat32(t *testing.T) {
	got := Int16ToFloat32([]int16{-32768, 0, 16384})
	want := []float32{-1, 0, 0.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if Int16ToFloat32(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
