// Package xerrors defines the sentinel error kinds the tracing engine
// can raise: registration conflict, unknown event, id exhaustion, and
// the merge invariant violations (header mismatch, record count
// mismatch, empty trace). Configuration problems and I/O failures have
// no sentinel here; I/O errors are wrapped and returned as they are.
//
// Callers compare with errors.Is; underlying causes are wrapped with
// fmt.Errorf("...: %w", err) at the point they're detected, the way
// perffile.reader wraps binary.Read failures.
package xerrors

import "errors"

var (
	// ErrIDExhausted is returned when the internal event-id counter
	// would overflow the 16-bit id space.
	ErrIDExhausted = errors.New("extrae: event id space exhausted")

	// ErrRegistrationConflict is returned when a caller requests a
	// specific value for an (event_id, value) pair that is already
	// occupied, or requests an event id outside the user range.
	ErrRegistrationConflict = errors.New("extrae: registration conflict")

	// ErrUnknownEvent is returned when a value is registered against
	// an event id that was never registered.
	ErrUnknownEvent = errors.New("extrae: unknown event id")

	// ErrHeaderMismatch is returned by the merger when two per-thread
	// files disagree on start_wallclock_seconds.
	ErrHeaderMismatch = errors.New("extrae: per-thread file headers disagree")

	// ErrRecordCountMismatch is returned by the merger when a file's
	// actual record count disagrees with its declared total_flushed.
	ErrRecordCountMismatch = errors.New("extrae: record count mismatch")

	// ErrEmptyTrace is returned by the merger when there are no
	// per-thread files, or all of them are empty.
	ErrEmptyTrace = errors.New("extrae: nothing to merge")
)
