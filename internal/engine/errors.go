package engine

import "errors"

var (
	// ErrUnsupportedFormat is returned by Load when the artifact is not in a
	// format the engine understands.
	ErrUnsupportedFormat = errors.New("unsupported model format")
	// ErrContextLengthExceeded is returned by Generate when the prompt does
	// not fit in the loaded context window.
	ErrContextLengthExceeded = errors.New("context length exceeded")
	// ErrContextCorrupted is returned (possibly wrapped) by Generate when the
	// context can no longer be used and must be reloaded.
	ErrContextCorrupted = errors.New("engine context corrupted")
)

// dependencyUnavailableError signals that the runtime itself is missing
// (e.g. built without llama support) rather than a problem with the artifact.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}
