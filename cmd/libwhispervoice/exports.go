// Command libwhispervoice is built with -buildmode=c-shared and exposes the
// token registry to managed runtimes (JNI, FFI).
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import "unsafe"

//export whispervoice_init
func whispervoice_init(modelPath *C.char) C.int64_t {
	var path *string
	if modelPath != nil {
		s := C.GoString(modelPath)
		path = &s
	}
	return C.int64_t(initialize(shared(), path))
}

//export whispervoice_free
func whispervoice_free(token C.int64_t) {
	free(shared(), int64(token))
}

//export whispervoice_transcribe
func whispervoice_transcribe(token C.int64_t, samples *C.float, count C.int32_t) *C.char {
	return C.CString(transcribe(shared(), int64(token), view(unsafe.Pointer(samples), int32(count))))
}

// whispervoice_transcribe_result is whispervoice_transcribe reporting the
// outcome tag (0 ok, 1 no context, 2 engine failure) and engine status.
//
//export whispervoice_transcribe_result
func whispervoice_transcribe_result(token C.int64_t, samples *C.float, count C.int32_t, outcome *C.int32_t, status *C.int32_t) *C.char {
	text, tag, code := transcribeResult(shared(), int64(token), view(unsafe.Pointer(samples), int32(count)))
	if outcome != nil {
		*outcome = C.int32_t(tag)
	}
	if status != nil {
		*status = C.int32_t(code)
	}
	return C.CString(text)
}

//export whispervoice_string_free
func whispervoice_string_free(s *C.char) {
	C.free(unsafe.Pointer(s))
}

func main() {}
