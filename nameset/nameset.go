// Package nameset is the process-wide, concurrent dictionary of event
// and value names, keyed by small stable integer ids.
//
// The id space [1, 32767] is reserved for caller-requested ids; ids
// above that are handed out by an internal counter for anonymous
// registrations. A caller that requests an id already in use gets the
// smallest free id strictly greater than the request (collision-by-
// probing, not collision-by-failure): see RegisterEventName.
package nameset

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Ergus/Extrae-rs/internal/xerrors"
	"github.com/Ergus/Extrae-rs/record"
)

// ValueInfo describes a registered (event, value) pair.
type ValueInfo struct {
	Name string
	File string
	Line uint32
}

type eventEntry struct {
	name   string
	file   string
	line   uint32
	values map[uint32]ValueInfo
}

// NameSet is safe for concurrent use by many goroutines.
type NameSet struct {
	mu      sync.RWMutex
	events  map[uint16]*eventEntry
	counter atomic.Uint32 // next anonymous id minus one; starts at record.MaxUserEventID
}

// New returns an empty NameSet.
func New() *NameSet {
	ns := &NameSet{events: make(map[uint16]*eventEntry)}
	ns.counter.Store(record.MaxUserEventID)
	return ns
}

// RegisterEventName registers name (or, if name is empty,
// "<file>:<line>") for an event.
//
// If requestedID is non-nil it must be in [1, record.MaxUserEventID];
// otherwise the next anonymous id is allocated. In either case, if the
// candidate id is already occupied, the smallest free id strictly
// greater than the candidate is used instead.
func (ns *NameSet) RegisterEventName(name, file string, line uint32, requestedID *uint16) (uint16, error) {
	real := name
	if real == "" {
		real = fmt.Sprintf("%s:%d", file, line)
	}

	var candidate uint32
	if requestedID != nil {
		if *requestedID == 0 || *requestedID > record.MaxUserEventID {
			return 0, fmt.Errorf("extrae: requested event id %d outside user range [1,%d]: %w",
				*requestedID, record.MaxUserEventID, xerrors.ErrRegistrationConflict)
		}
		candidate = uint32(*requestedID)
	} else {
		next := ns.counter.Add(1)
		if next > record.MaxEventID {
			return 0, xerrors.ErrIDExhausted
		}
		candidate = next
	}

	entry := &eventEntry{name: real, file: file, line: line, values: make(map[uint32]ValueInfo)}

	ns.mu.Lock()
	defer ns.mu.Unlock()
	for {
		if candidate > record.MaxEventID {
			return 0, xerrors.ErrIDExhausted
		}
		if _, occupied := ns.events[uint16(candidate)]; !occupied {
			break
		}
		candidate++
	}
	ns.events[uint16(candidate)] = entry
	return uint16(candidate), nil
}

// RegisterEventNameInternal is a convenience for bootstrap
// registrations (e.g. GlobalInfo's ThreadRunning event) that never
// request a specific id.
func (ns *NameSet) RegisterEventNameInternal(name string) (uint16, error) {
	return ns.RegisterEventName(name, "", 0, nil)
}

// RegisterEventValueName registers name for value on eventID, which
// must already be registered. If requestedValue is non-nil and
// already occupied for this event, registration fails (no probing for
// values, unlike event ids). If requestedValue is nil, the next value
// after the current maximum is used (starting at 1).
func (ns *NameSet) RegisterEventValueName(eventID uint16, name, file string, line uint32, requestedValue *uint32) (uint32, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	entry, ok := ns.events[eventID]
	if !ok {
		return 0, fmt.Errorf("extrae: register value for event %d: %w", eventID, xerrors.ErrUnknownEvent)
	}

	var value uint32
	if requestedValue != nil {
		if _, occupied := entry.values[*requestedValue]; occupied {
			return 0, fmt.Errorf("extrae: value %d already registered for event %d: %w",
				*requestedValue, eventID, xerrors.ErrRegistrationConflict)
		}
		value = *requestedValue
	} else {
		var max uint32
		for v := range entry.values {
			if v > max {
				max = v
			}
		}
		value = max + 1
	}

	real := name
	if real == "" {
		real = fmt.Sprintf("%s:%d", file, line)
	}
	entry.values[value] = ValueInfo{Name: real, File: file, Line: line}
	return value, nil
}

// GetEventValueInfo looks up a value's name info for eventID. If
// value is nil, the event's own name info is returned instead.
func (ns *NameSet) GetEventValueInfo(eventID uint16, value *uint32) (ValueInfo, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	entry, ok := ns.events[eventID]
	if !ok {
		return ValueInfo{}, false
	}
	if value == nil {
		return ValueInfo{Name: entry.name, File: entry.file, Line: entry.line}, true
	}
	vi, ok := entry.values[*value]
	return vi, ok
}

// WritePCF writes the Paraver .pcf naming dictionary to path, in
// ascending event id order.
func (ns *NameSet) WritePCF(path string) error {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	ids := make([]uint16, 0, len(ns.events))
	for id := range ns.events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("extrae: create %s: %w", path, err)
	}
	defer f.Close()

	for _, id := range ids {
		entry := ns.events[id]
		if _, err := fmt.Fprintf(f, "# %s:%d\n", entry.file, entry.line); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(f, "EVENT_TYPE\n0 %d %s\n", id, entry.name); err != nil {
			return err
		}
		if len(entry.values) > 0 {
			if _, err := fmt.Fprintf(f, "VALUES\n"); err != nil {
				return err
			}
			values := make([]uint32, 0, len(entry.values))
			for v := range entry.values {
				values = append(values, v)
			}
			sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
			for _, v := range values {
				vi := entry.values[v]
				if _, err := fmt.Fprintf(f, "%d %s:%s\n", v, entry.name, vi.Name); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintf(f, "\n"); err != nil {
			return err
		}
	}
	return nil
}
