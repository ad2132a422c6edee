// Package server defines the error taxonomy for the Roomcast core. None of
// these errors are fatal to the process; the worst outcome of any of them is
// a dropped event.
package server

import "errors"

// ErrConnectionNotFound reports that an event referenced a connection id the
// registry no longer knows about. This is a normal race with disconnect and
// callers treat it as a no-op.
var ErrConnectionNotFound = errors.New("connection not found")

// ValidationError reports a missing required field on an inbound event.
// Events carrying one are dropped.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + e.Field
}

// ClockError reports that a timestamp could not be captured while formatting
// an envelope. The envelope is still delivered with an empty time.
type ClockError struct {
	Reason string
}

func (e *ClockError) Error() string {
	return "clock unavailable: " + e.Reason
}
