// Package epoch establishes the process-wide monotonic time origin
// that every record's time_ns is relative to. The origin is fixed
// lazily, at the first call to Now from any thread, not at process
// start, so a process that never traces never pays for it.
package epoch

import (
	"sync"
	"time"
)

var once sync.Once
var start time.Time

// Now returns elapsed nanoseconds since the process's trace epoch,
// fixing the epoch on the first call.
func Now() uint64 {
	once.Do(func() { start = time.Now() })
	return uint64(time.Since(start).Nanoseconds())
}
