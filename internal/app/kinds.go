package app

import (
	"context"
	"errors"

	"llmbridge/internal/bridge"
	"llmbridge/internal/engine"
	"llmbridge/internal/handle"
)

// Error classes shared by the HTTP harness and the C boundary.
const (
	KindLoadFailure           = "load_failure"
	KindNotLoaded             = "not_loaded"
	KindInferenceFailure      = "inference_failure"
	KindInvalidArgument       = "invalid_argument"
	KindBusy                  = "busy"
	KindDependencyUnavailable = "dependency_unavailable"
	KindInternal              = "internal"
)

// Classify maps an error returned by App to its class. nil maps to "".
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case bridge.IsInvalidPrompt(err):
		return KindInvalidArgument
	case handle.IsBusy(err), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindBusy
	case handle.IsNotLoaded(err):
		return KindNotLoaded
	case engine.IsDependencyUnavailable(err):
		return KindDependencyUnavailable
	case handle.IsLoadFailure(err):
		return KindLoadFailure
	case bridge.IsInferenceFailure(err):
		return KindInferenceFailure
	default:
		return KindInternal
	}
}
