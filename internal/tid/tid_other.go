//go:build !linux

package tid

import (
	"os"
	"sync/atomic"
)

var fallbackCounter int64 = int64(os.Getpid()) << 32

// Current synthesizes a per-call unique id on platforms without a
// kernel thread id. Callers that need a durable identity must pin
// their goroutine and cache the first value returned.
func Current() int64 {
	return atomic.AddInt64(&fallbackCounter, 1)
}
