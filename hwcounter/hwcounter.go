package hwcounter

import (
	"fmt"
	"sync"

	"github.com/Ergus/Extrae-rs/nameset"
	"github.com/Ergus/Extrae-rs/record"
)

// counter is one open perf_event_open() file descriptor paired with
// the event id registered for it.
type counter struct {
	name    string
	eventID uint16
	close   func() error
	read    func() (uint64, error)
}

// Group is a set of open hardware counters, sampled together so their
// readings share one (event_id, value) batch.
type Group struct {
	mu       sync.Mutex
	counters []counter
}

// Open opens one counter per name in names (deduplicated), registering
// an event-value name for each under a dedicated "HardwareCounters"
// event id. If no counter could be opened, the first open error is
// returned and the Group is nil. If at least one counter opened, the
// Group holds the ones that did and the error is nil: counters that
// failed to open are left out and their errors are not returned.
// Unknown names are filtered out earlier, by the config layer.
func Open(ns *nameset.NameSet, names []string) (*Group, error) {
	if len(names) == 0 {
		return &Group{}, nil
	}

	countersEventID, err := ns.RegisterEventNameInternal("HardwareCounters")
	if err != nil {
		return nil, fmt.Errorf("hwcounter: register event name: %w", err)
	}

	g := &Group{}
	var openErrs []error
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		readFn, closeFn, err := openPlatform(name)
		if err != nil {
			openErrs = append(openErrs, fmt.Errorf("hwcounter: open %q: %w", name, err))
			continue
		}

		_, err = ns.RegisterEventValueName(countersEventID, name, "", 0, nil)
		if err != nil {
			closeFn()
			openErrs = append(openErrs, fmt.Errorf("hwcounter: register value name %q: %w", name, err))
			continue
		}

		g.counters = append(g.counters, counter{
			name:    name,
			eventID: countersEventID,
			close:   closeFn,
			read:    readFn,
		})
	}

	if len(g.counters) == 0 && len(openErrs) > 0 {
		return nil, openErrs[0]
	}
	return g, nil
}

// Sample reads every open counter and returns one (event_id, value)
// pair per counter, ready for Buffer.EmplaceMany.
func (g *Group) Sample() []record.Pair {
	g.mu.Lock()
	defer g.mu.Unlock()

	pairs := make([]record.Pair, 0, len(g.counters))
	for _, c := range g.counters {
		v, err := c.read()
		if err != nil {
			continue
		}
		if v > 0xffffffff {
			v = 0xffffffff
		}
		pairs = append(pairs, record.Pair{EventID: c.eventID, Value: uint32(v)})
	}
	return pairs
}

// Close closes every open counter.
func (g *Group) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var first error
	for _, c := range g.counters {
		if err := c.close(); err != nil && first == nil {
			first = err
		}
	}
	g.counters = nil
	return first
}
