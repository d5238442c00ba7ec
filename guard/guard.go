// Package guard provides scope-guard ergonomics over the extrae
// package's Emit calls, mirroring the Span helper in
// Amirus-luci-go/client/internal/tracer: a single call at the top of a
// scope emits an "enter" event and returns a closer that emits
// "leave" when deferred.
package guard

import (
	"sync"

	extrae "github.com/Ergus/Extrae-rs"
	"github.com/Ergus/Extrae-rs/internal/elog"
)

// siteID memoizes the event id for one call site, the way the
// compile-time instrumentation transform (§4.8 of the design) memoizes
// its call-site id in a one-shot cell.
type siteID struct {
	once sync.Once
	id   uint16
	err  error
}

// registerOnce is shared by Site so that repeated calls with the same
// *siteID (normally a package-level var at the call site) only
// register the name once, no matter how many times the scope runs.
func (s *siteID) registerOnce(name, file string, line uint32) (uint16, error) {
	s.once.Do(func() {
		s.id, s.err = extrae.RegisterEventName(name, file, line, nil)
	})
	return s.id, s.err
}

// Site is a call-site-local handle for Enter. Declare one as a
// package-level var per instrumented call site:
//
//	var mySite guard.Site
//
//	func myFunc(ti *extrae.ThreadInfo) {
//		defer mySite.Enter(ti, "my-func", "myfile.go", 12, 1)()
//		...
//	}
type Site struct {
	id siteID
}

// Enter registers name (once, memoized on s) and emits (id,
// enterValue) on ti, the calling thread's handle from extrae.Attach.
// Emitting goes straight through ti -- no shared lock or lookup beyond
// the one-time registration. The caller MUST defer the returned
// function, which emits (id, 0) on ti on leave.
func (s *Site) Enter(ti *extrae.ThreadInfo, name, file string, line uint32, enterValue uint32) func() {
	id, err := s.id.registerOnce(name, file, line)
	if err != nil {
		return func() {}
	}
	if err := ti.Emit(id, enterValue); err != nil {
		elog.Errorw("guard enter emit failed", "event", id, "error", err)
	}
	return func() {
		if err := ti.Emit(id, 0); err != nil {
			elog.Errorw("guard exit emit failed", "event", id, "error", err)
		}
	}
}
