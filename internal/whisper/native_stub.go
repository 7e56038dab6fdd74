//go:build !whispercpp

package whisper

// NativeAvailable reports whether the whisper.cpp backend is compiled in.
func NativeAvailable() bool { return false }

// NewNativeBackend returns ErrNativeUnavailable when the native backend is not built.
func NewNativeBackend(opts NativeOptions) (Backend, error) {
	return nil, ErrNativeUnavailable
}
