// Package ffi adapts an App to the flat, status-code based surface exported
// to C and JNI callers. Nothing here touches cgo, so the contract is
// testable with plain Go tests; cmd/libllmbridge only converts strings.
package ffi

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"llmbridge/internal/app"
	"llmbridge/internal/config"
	"llmbridge/internal/logging"
)

// Status is the result code returned across the boundary.
type Status int

const (
	OK Status = iota
	LoadFailure
	NotLoaded
	InferenceFailure
	InvalidArgument
	Busy
	Internal
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case LoadFailure:
		return "load_failure"
	case NotLoaded:
		return "not_loaded"
	case InferenceFailure:
		return "inference_failure"
	case InvalidArgument:
		return "invalid_argument"
	case Busy:
		return "busy"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StatusOf maps an App error to a boundary status.
func StatusOf(err error) Status {
	switch app.Classify(err) {
	case "":
		return OK
	case app.KindLoadFailure, app.KindDependencyUnavailable:
		return LoadFailure
	case app.KindNotLoaded:
		return NotLoaded
	case app.KindInferenceFailure:
		return InferenceFailure
	case app.KindInvalidArgument:
		return InvalidArgument
	case app.KindBusy:
		return Busy
	default:
		return Internal
	}
}

// Host is the boundary view of one App. Every method recovers panics, so a
// fault below never unwinds into foreign frames.
type Host struct {
	app     *app.App
	lastErr atomic.Pointer[string]
}

// NewHost wraps a.
func NewHost(a *app.App) *Host { return &Host{app: a} }

// Open builds a Host from a config file (empty path uses defaults). Logs go
// to stderr as JSON at the configured level unless oo supplies a logger.
func Open(configPath string, oo ...app.Option) (*Host, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, append([]app.Option{app.WithLogger(log)}, oo...)...)
	if err != nil {
		return nil, err
	}
	return NewHost(a), nil
}

// LoadModel loads path, replacing any loaded model. On failure it returns
// false and the reason for this call; LastError also records it.
func (h *Host) LoadModel(path string) (ok bool, msg string) {
	defer h.recoverPanic(func(m string) { ok, msg = false, m })
	if _, err := h.app.LoadModel(context.Background(), path); err != nil {
		return false, h.setErr(err)
	}
	return true, ""
}

// UnloadModel releases the loaded model, if any.
func (h *Host) UnloadModel() {
	defer h.recoverPanic(nil)
	if err := h.app.UnloadModel(context.Background()); err != nil {
		h.setErr(err)
	}
}

// IsModelLoaded never blocks.
func (h *Host) IsModelLoaded() (loaded bool) {
	defer h.recoverPanic(func(string) { loaded = false })
	return h.app.IsModelLoaded()
}

// Predict returns the generated text and OK, or "" with a failure status
// and the message for this call.
func (h *Host) Predict(prompt string) (text string, st Status, msg string) {
	defer h.recoverPanic(func(m string) { text, st, msg = "", Internal, m })
	out, err := h.app.Predict(context.Background(), prompt)
	if err != nil {
		return "", StatusOf(err), h.setErr(err)
	}
	return out, OK, ""
}

// LastError returns the message of the most recent failure, or "".
func (h *Host) LastError() string {
	if p := h.lastErr.Load(); p != nil {
		return *p
	}
	return ""
}

// Close tears down the App.
func (h *Host) Close() (err error) {
	defer h.recoverPanic(func(string) { err = fmt.Errorf("panic during close") })
	return h.app.Close()
}

func (h *Host) setErr(err error) string {
	msg := err.Error()
	h.lastErr.Store(&msg)
	return msg
}

func (h *Host) recoverPanic(onPanic func(msg string)) {
	if r := recover(); r != nil {
		msg := h.setErr(fmt.Errorf("internal error: %v", r))
		if onPanic != nil {
			onPanic(msg)
		}
	}
}
