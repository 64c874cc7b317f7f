package handle

import (
	"context"
	"time"
)

// acquire takes the single exclusive slot shared by Load, Unload and With.
// Returns a release func to be deferred.
func (m *Manager) acquire(ctx context.Context) (func(), error) {
	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	var timeout <-chan time.Time
	if m.lockTimeout > 0 {
		timer := time.NewTimer(m.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case m.slot <- struct{}{}:
		return func() { <-m.slot }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timeout:
		return func() {}, ErrBusy
	}
}
