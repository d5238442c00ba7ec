// Package bufferset is the process-wide registry mapping thread
// identity to a dense, 1-based buffer ordinal, and the running-thread
// counter that GlobalInfo watches to decide when to finalize.
//
// The thread_key -> ordinal mapping is only written at Retire time,
// not at Acquire time: this is what lets a recycled OS thread id (a
// short-lived worker pool reusing tids) come back to the same ordinal
// instead of growing the trace's visible thread count, at the cost of
// an ordinal not being reserved until its first thread has already
// finished.
package bufferset

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
)

// BufferSet is safe for concurrent use by many goroutines.
type BufferSet struct {
	traceDir string

	mu        sync.RWMutex
	ordinalOf map[int64]uint32
	everSeen  atomic.Uint32
	running   atomic.Int64
	hostname  string
}

// New creates a BufferSet rooted at traceDir. traceDir must already
// exist; BufferSet never creates it.
func New(traceDir string) *BufferSet {
	host, _ := os.Hostname()
	return &BufferSet{
		traceDir:  traceDir,
		ordinalOf: make(map[int64]uint32),
		hostname:  host,
	}
}

// TraceDir returns the directory all per-thread files live under.
func (bs *BufferSet) TraceDir() string {
	return bs.traceDir
}

// AcquireForThread returns the ordinal and backing file path for
// threadKey, bumping the running-thread count. If threadKey was never
// seen before (including a prior life under a recycled id), a fresh
// ordinal is allocated from the dense counter.
func (bs *BufferSet) AcquireForThread(threadKey int64) (ordinal uint32, path string) {
	bs.mu.RLock()
	ordinal, seen := bs.ordinalOf[threadKey]
	bs.mu.RUnlock()

	if !seen {
		ordinal = bs.everSeen.Add(1)
	}

	bs.running.Add(1)
	path = fmt.Sprintf("%s/Trace_%d.bin", bs.traceDir, ordinal)
	return ordinal, path
}

// Retire records threadKey's ordinal (so a recycled id maps back to
// it) and decrements the running-thread count, returning the new
// count.
func (bs *BufferSet) Retire(threadKey int64, ordinal uint32) (remainingRunning int64, err error) {
	bs.mu.Lock()
	if existing, ok := bs.ordinalOf[threadKey]; ok {
		if existing != ordinal {
			bs.mu.Unlock()
			return 0, fmt.Errorf("extrae: thread %d retired with ordinal %d, expected %d (id recycling bug)",
				threadKey, ordinal, existing)
		}
	} else {
		bs.ordinalOf[threadKey] = ordinal
	}
	bs.mu.Unlock()

	return bs.running.Add(-1), nil
}

// Running returns the current count of threads that have acquired a
// buffer but not yet retired it.
func (bs *BufferSet) Running() int64 {
	return bs.running.Load()
}

// EverSeen returns the total number of distinct ordinals ever handed
// out.
func (bs *BufferSet) EverSeen() uint32 {
	return bs.everSeen.Load()
}

// WriteRow writes the Paraver .row topology file to path. It must
// only be called once Running() == 0.
func (bs *BufferSet) WriteRow(path string) error {
	bs.mu.RLock()
	nEntries := len(bs.ordinalOf)
	everSeen := bs.everSeen.Load()
	running := bs.running.Load()
	bs.mu.RUnlock()

	if running != 0 {
		return fmt.Errorf("extrae: write .row with %d threads still running", running)
	}
	if uint32(nEntries) != everSeen {
		return fmt.Errorf("extrae: write .row with %d recorded threads, expected %d", nEntries, everSeen)
	}

	nCPU := runtime.NumCPU()
	host := bs.hostname
	if host == "" {
		host = "localhost"
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("extrae: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "LEVEL CPU SIZE %d\n", nCPU); err != nil {
		return err
	}
	for i := 0; i < nCPU; i++ {
		if _, err := fmt.Fprintf(f, "%d.%s\n", i+1, host); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(f, "\nLEVEL NODE SIZE 1\n%s\n\n", host); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "LEVEL THREAD SIZE %d\n", everSeen); err != nil {
		return err
	}
	for i := uint32(1); i <= everSeen; i++ {
		if _, err := fmt.Fprintf(f, "THREAD 1.1.%d\n", i); err != nil {
			return err
		}
	}
	return nil
}
