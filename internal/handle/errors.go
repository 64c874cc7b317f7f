package handle

import (
	"errors"
	"fmt"
)

// ErrNotLoaded is returned when an operation needs a model and none is loaded.
var ErrNotLoaded = errors.New("no model loaded")

// ErrBusy is returned when the exclusive lock could not be acquired within
// the configured wait.
var ErrBusy = errors.New("model handle busy")

// LoadError reports a failed load. The manager is always Unloaded afterwards.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadFailure reports whether err is a LoadError.
func IsLoadFailure(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsNotLoaded reports whether err indicates that no model is loaded.
func IsNotLoaded(err error) bool { return errors.Is(err, ErrNotLoaded) }

// IsBusy reports whether err indicates lock wait timeout.
func IsBusy(err error) bool { return errors.Is(err, ErrBusy) }
