package domain

import "errors"

var (
	// ErrThreadNotFound is returned by checkpoint stores when no transcript
	// exists for the requested thread id.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrSessionNotFound is returned by the web session manager for unknown
	// session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionBusy is returned when a driver step is requested while
	// another one is still in flight for the same session. A session is
	// single-threaded through the driver at all times.
	ErrSessionBusy = errors.New("session has an invocation in flight")
)
