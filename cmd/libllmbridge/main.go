// Command libllmbridge builds the bridge as a C shared library for the
// mobile app:
//
//	go build -buildmode=c-shared -tags llama -o libllmbridge.so ./cmd/libllmbridge
//
// Strings passed in are copied with C.GoString before any work starts, so
// callers may free them as soon as a call returns. Strings passed out are
// fresh malloc'd copies owned by the caller, released with
// llmbridge_free_string. Go keeps no reference to either.
package main

/*
#include <stdlib.h>
#include <stdbool.h>
*/
import "C"

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"llmbridge/internal/ffi"
)

var (
	hostMu sync.Mutex
	host   *ffi.Host

	lastErr atomic.Pointer[string]
)

// current returns the process-wide host, opening one with default
// configuration on first use.
func current() (*ffi.Host, error) {
	hostMu.Lock()
	defer hostMu.Unlock()
	if host != nil {
		return host, nil
	}
	h, err := ffi.Open("")
	if err != nil {
		return nil, err
	}
	host = h
	return host, nil
}

func recordErr(msg string) { lastErr.Store(&msg) }

// fail records msg as the process-wide last error and, when errOut is
// non-NULL, hands the caller its own copy.
func fail(errOut **C.char, msg string) {
	recordErr(msg)
	setOut(errOut, msg)
}

func setStatus(out *C.int, st ffi.Status) {
	if out != nil {
		*out = C.int(st)
	}
}

// llmbridge_init (re)configures the process-wide host from a YAML, JSON or
// TOML file. NULL or "" uses defaults. A previous host is closed first.
//
//export llmbridge_init
func llmbridge_init(configPath *C.char) C.int {
	path := ""
	if configPath != nil {
		path = goString(configPath)
	}
	h, err := ffi.Open(path)
	if err != nil {
		recordErr(err.Error())
		return C.int(ffi.InvalidArgument)
	}
	hostMu.Lock()
	prev := host
	host = h
	hostMu.Unlock()
	if prev != nil {
		if err := prev.Close(); err != nil {
			recordErr(err.Error())
		}
	}
	return C.int(ffi.OK)
}

//export llmbridge_load_model
func llmbridge_load_model(path *C.char) C.bool {
	return llmbridge_load_model_ex(path, nil)
}

// llmbridge_load_model_ex is llmbridge_load_model that also hands back the
// failure message of this call in *err_out (caller-owned; untouched on
// success). Concurrent callers each get their own message.
//
//export llmbridge_load_model_ex
func llmbridge_load_model_ex(path *C.char, errOut **C.char) C.bool {
	if path == nil {
		fail(errOut, "model path is NULL")
		return C.bool(false)
	}
	p := goString(path)
	h, err := current()
	if err != nil {
		fail(errOut, err.Error())
		return C.bool(false)
	}
	if ok, msg := h.LoadModel(p); !ok {
		fail(errOut, msg)
		return C.bool(false)
	}
	return C.bool(true)
}

//export llmbridge_unload_model
func llmbridge_unload_model() {
	h, err := current()
	if err != nil {
		recordErr(err.Error())
		return
	}
	h.UnloadModel()
}

//export llmbridge_is_model_loaded
func llmbridge_is_model_loaded() C.bool {
	h, err := current()
	if err != nil {
		return C.bool(false)
	}
	return C.bool(h.IsModelLoaded())
}

// llmbridge_predict returns a caller-owned copy of the generated text and
// sets *status to 0, or returns NULL with *status set to the failure code.
// status may be NULL.
//
//export llmbridge_predict
func llmbridge_predict(prompt *C.char, status *C.int) *C.char {
	return llmbridge_predict_ex(prompt, status, nil)
}

// llmbridge_predict_ex is llmbridge_predict that also hands back the
// failure message of this call in *err_out (caller-owned; untouched on
// success).
//
//export llmbridge_predict_ex
func llmbridge_predict_ex(prompt *C.char, status *C.int, errOut **C.char) *C.char {
	if prompt == nil {
		fail(errOut, "prompt is NULL")
		setStatus(status, ffi.InvalidArgument)
		return nil
	}
	p := goString(prompt)
	h, err := current()
	if err != nil {
		fail(errOut, err.Error())
		setStatus(status, ffi.Internal)
		return nil
	}
	text, st, msg := h.Predict(p)
	setStatus(status, st)
	if st != ffi.OK {
		fail(errOut, msg)
		return nil
	}
	return cString(text)
}

// llmbridge_last_error returns a caller-owned copy of the most recent error
// message, or NULL when no call has failed.
//
//export llmbridge_last_error
func llmbridge_last_error() *C.char {
	p := lastErr.Load()
	if p == nil {
		return nil
	}
	return cString(*p)
}

//export llmbridge_free_string
func llmbridge_free_string(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

// llmbridge_shutdown unloads the model and drops the process-wide host.
//
//export llmbridge_shutdown
func llmbridge_shutdown() C.int {
	hostMu.Lock()
	h := host
	host = nil
	hostMu.Unlock()
	if h == nil {
		return C.int(ffi.OK)
	}
	if err := h.Close(); err != nil {
		recordErr(err.Error())
		return C.int(ffi.Internal)
	}
	return C.int(ffi.OK)
}

func main() {}
