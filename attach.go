package extrae

import (
	"runtime"

	"github.com/Ergus/Extrae-rs/internal/tid"
)

// Attach acquires this goroutine's ThreadInfo, locking it to its
// current OS thread for the duration (the trace is keyed by OS thread,
// and Go otherwise offers no stable thread identity), and returns a
// handle bound to it. The caller holds onto the returned *ThreadInfo
// and calls its Emit/EmitMany methods directly: those close over the
// buffer acquired here, so after this call returns, emitting never
// takes the global coordinator's lock or does a lookup keyed by thread
// id -- only the first call from a thread pays that cost.
//
// The caller MUST defer the returned handle's Close, which flushes,
// retires the buffer, and unlocks the OS thread.
//
// Calling Attach more than once per goroutine without closing the
// first handle acquires a second, independent buffer (with its own
// ordinal) for the same OS thread and nests the OS thread lock, which
// stays held until every handle is closed; don't.
func Attach() *ThreadInfo {
	runtime.LockOSThread()
	key := tid.Current()
	return global().acquireThread(key)
}

// Run calls body on a new goroutine wrapped in Attach/Close, so body
// shows up as its own thread in the trace. body receives the handle
// for that thread, to emit through directly. Run blocks until body
// returns.
func Run(body func(ti *ThreadInfo)) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ti := Attach()
		defer ti.Close()
		body(ti)
	}()
	<-done
}

// RegisterEventName registers name (or "<file>:<line>" if name is
// empty) for an event, returning its id. If requestedID is nil an
// internal id is allocated; otherwise requestedID must be in
// [1, record.MaxUserEventID] and, if already occupied, the smallest
// free id strictly greater than it is used instead.
func RegisterEventName(name, file string, line uint32, requestedID *uint16) (uint16, error) {
	return global().names.RegisterEventName(name, file, line, requestedID)
}

// RegisterEventValueName registers name for value on eventID, which
// must already be registered.
func RegisterEventValueName(eventID uint16, name, file string, line uint32, requestedValue *uint32) (uint32, error) {
	return global().names.RegisterEventValueName(eventID, name, file, line, requestedValue)
}
