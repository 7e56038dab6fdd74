package whisper

// NativeOptions configures model loading in the whisper.cpp backend. Nil
// fields keep the engine defaults.
type NativeOptions struct {
	UseGPU *bool
}
