//go:build whispercpp

package whisper

/*
#cgo CFLAGS: -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo CXXFLAGS: -std=c++17 -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo LDFLAGS: -L${SRCDIR}/../../third_party/whisper.cpp/build -L${SRCDIR}/../../third_party/whisper.cpp/build/src -Wl,-rpath,${SRCDIR}/../../third_party/whisper.cpp/build/src -lwhisper -lstdc++ -lm

#include "stdlib.h"
#include "include/whisper.h"
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"
)

// NativeAvailable reports whether the whisper.cpp backend is compiled in.
func NativeAvailable() bool { return true }

// NativeBackend loads models through whisper.cpp.
type NativeBackend struct {
	// UseGPU overrides the engine default when set.
	UseGPU *bool
}

// NewNativeBackend returns the whisper.cpp backend.
func NewNativeBackend(opts NativeOptions) (Backend, error) {
	return &NativeBackend{UseGPU: opts.UseGPU}, nil
}

// Load implements Backend.
func (b *NativeBackend) Load(path string) (Model, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	cParams := C.whisper_context_default_params()
	if b.UseGPU != nil {
		cParams.use_gpu = C.bool(*b.UseGPU)
	}

	ctx := C.whisper_init_from_file_with_params(cPath, cParams)
	if ctx == nil {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, path)
	}
	return &nativeModel{ctx: ctx}, nil
}

type nativeModel struct {
	ctx *C.struct_whisper_context
}

func (m *nativeModel) Full(params Params, samples []float32) int {
	if m.ctx == nil || len(samples) == 0 {
		return -1
	}

	var strategy C.enum_whisper_sampling_strategy = C.WHISPER_SAMPLING_GREEDY
	if params.Strategy == StrategyBeamSearch {
		strategy = C.WHISPER_SAMPLING_BEAM_SEARCH
	}

	cParams := C.whisper_full_default_params(strategy)
	cParams.print_realtime = C.bool(params.PrintRealtime)
	cParams.print_progress = C.bool(params.PrintProgress)
	cParams.print_timestamps = C.bool(params.PrintTimestamps)
	cParams.print_special = C.bool(params.PrintSpecial)
	cParams.n_threads = C.int(params.Threads)
	cParams.translate = C.bool(params.Translate)

	lang := strings.TrimSpace(params.Language)
	if lang == "" {
		lang = DefaultLanguage
	}
	cLang := C.CString(lang)
	defer C.free(unsafe.Pointer(cLang))
	cParams.language = cLang

	cSamples := (*C.float)(unsafe.Pointer(&samples[0]))
	return int(C.whisper_full(m.ctx, cParams, cSamples, C.int(len(samples))))
}

func (m *nativeModel) NumSegments() int {
	if m.ctx == nil {
		return 0
	}
	return int(C.whisper_full_n_segments(m.ctx))
}

func (m *nativeModel) SegmentText(i int) string {
	if m.ctx == nil {
		return ""
	}
	return C.GoString(C.whisper_full_get_segment_text(m.ctx, C.int(i)))
}

func (m *nativeModel) Free() {
	if m.ctx == nil {
		return
	}
	C.whisper_free(m.ctx)
	m.ctx = nil
}
