package bridge

import (
	"errors"
	"fmt"
)

// ErrInvalidPrompt is returned for prompts that are blank, contain NUL bytes
// or are not valid UTF-8. The engine is never invoked for them.
var ErrInvalidPrompt = errors.New("invalid prompt")

// InferenceError reports an engine failure during generation.
type InferenceError struct {
	Err error
	// Invalidated is true when the engine declared its context corrupted and
	// the model was unloaded as a consequence.
	Invalidated bool
}

func (e *InferenceError) Error() string {
	if e.Invalidated {
		return fmt.Sprintf("inference failed (model unloaded): %v", e.Err)
	}
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// IsInferenceFailure reports whether err is an InferenceError.
func IsInferenceFailure(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}

// IsInvalidPrompt reports whether err rejects the prompt itself.
func IsInvalidPrompt(err error) bool { return errors.Is(err, ErrInvalidPrompt) }
