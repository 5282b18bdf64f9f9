package worker

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is returned to a caller whose request was cancelled
	// before a response arrived.
	ErrCancelled = errors.New("worker: request cancelled")
	// ErrTimeout is returned when a request's configured timeout elapses
	// with no response.
	ErrTimeout = errors.New("worker: request timed out")
	// ErrShutdown names a shut-down handle. No function in this package
	// returns it: Handle.Shutdown does not change how later calls behave.
	ErrShutdown = errors.New("worker: handle is shut down")
	// ErrUnknownWorker is returned by Registry lookups for a name that
	// was never registered.
	ErrUnknownWorker = errors.New("worker: no such worker registered")
)

// DiedError reports that a worker crashed; it is surfaced as the spec's
// WorkerDied(name) event. Requests issued against the same Handle after
// this fail fast with the same error until the worker is replaced.
type DiedError struct {
	Name   string
	Reason string
}

func (e *DiedError) Error() string {
	return fmt.Sprintf("worker %q died: %s", e.Name, e.Reason)
}

// IsDied reports whether err is (or wraps) a *DiedError.
func IsDied(err error) bool {
	var d *DiedError
	return errors.As(err, &d)
}
