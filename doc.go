// Package extrae is a multithreaded instrumentation tracer: it records
// time-stamped, categorized events from an application's goroutines,
// buffers them per OS thread to minimize synchronization overhead,
// persists them to per-thread binary files, and at finalize merges the
// per-thread streams into a Paraver trace plus its .pcf/.row sidecars.
//
// Usage:
//
//	func main() {
//		ti := extrae.Attach()
//		defer ti.Close()
//		id, _ := extrae.RegisterEventName("my-event", "main.go", 10, nil)
//		ti.Emit(id, 1)
//		// ... do work, emit more events through ti, spawn goroutines
//		// (via extrae.Run, or their own Attach call) that should
//		// appear as their own thread in the trace ...
//	}
//
// Finalization (writing Trace.row, Trace.pcf, and optionally
// Trace.prv) runs when the handle for the OS thread that bootstrapped
// the tracer is closed. The tracer is bootstrapped by the first call
// into this package, whether that is Attach or one of the Register
// functions, and the OS thread running that call is the one recorded;
// when the first call is Attach, that is the goroutine that first
// called Attach. This stands
// in for the "main thread triggers finalize" rule: Go has no reliable
// signal equivalent to a C++ static destructor running at process
// exit, but the first Attach call is a reliable stand-in for "the
// thread everything else is spawned from" in the common case where a
// program calls Attach once at the top of main before spawning
// workers.
package extrae
