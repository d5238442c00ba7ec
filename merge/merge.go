// Package merge performs the end-of-process k-way merge: it reads
// every per-thread binary trace file, merges their records by
// timestamp, and writes the merged Paraver text trace.
package merge

import (
	"container/heap"
	"fmt"

	"github.com/Ergus/Extrae-rs/internal/xerrors"
	"github.com/Ergus/Extrae-rs/record"
)

// ExtendedEvent is one or more records from the same thread that
// share (time_ns, core_id), destined for a single output line.
type ExtendedEvent struct {
	Time          uint64
	Core          uint16
	ThreadOrdinal uint32
	Events        []record.Pair
}

// Result is the outcome of a successful merge, ready to be externalized
// as a .prv file by WritePRV.
type Result struct {
	StartWallclockSeconds uint64
	Events                []ExtendedEvent
	MaxCore               uint16
	ThreadOrdinals        map[uint32]bool
}

// Merge reads every Trace_<k>.bin file in dir and returns the globally
// sorted, grouped result. It returns xerrors.ErrEmptyTrace if dir has
// no trace files or they contain zero records combined.
func Merge(dir string) (*Result, error) {
	paths, err := discoverTraceFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, xerrors.ErrEmptyTrace
	}

	streams := make([]*fileStream, 0, len(paths))
	defer func() {
		for _, s := range streams {
			s.close()
		}
	}()

	var startWallclock uint64
	var totalRecords uint64
	for i, p := range paths {
		st, hdr, err := openStream(i, p)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			startWallclock = hdr.StartWallclockSeconds
		} else if hdr.StartWallclockSeconds != startWallclock {
			return nil, fmt.Errorf("extrae: %s reports start time %d, expected %d: %w",
				p, hdr.StartWallclockSeconds, startWallclock, xerrors.ErrHeaderMismatch)
		}
		streams = append(streams, st)
		totalRecords += uint64(hdr.TotalFlushed)
	}

	if totalRecords == 0 {
		return nil, xerrors.ErrEmptyTrace
	}

	h := &itemHeap{}
	heap.Init(h)
	for _, st := range streams {
		rec, ok, err := st.next()
		if err != nil {
			return nil, err
		}
		if ok {
			heap.Push(h, item{rec, st})
		}
	}

	var events []ExtendedEvent
	var consumed uint64
	var maxCore uint16
	threadOrdinals := make(map[uint32]bool)

	for h.Len() > 0 {
		popped := heap.Pop(h).(item)
		cur := popped.rec
		st := popped.stream

		ee := ExtendedEvent{
			Time:          cur.TimeNS,
			Core:          cur.CoreID,
			ThreadOrdinal: st.ordinal,
			Events:        []record.Pair{{EventID: cur.EventID, Value: cur.Value}},
		}
		consumed++
		if cur.CoreID > maxCore {
			maxCore = cur.CoreID
		}
		threadOrdinals[st.ordinal] = true

		// Drain further records from the SAME file while their
		// header byte-matches: grouping is within-file only (P8).
		for {
			next, ok, err := st.next()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			if !next.SameHeader(cur) {
				heap.Push(h, item{next, st})
				break
			}
			ee.Events = append(ee.Events, record.Pair{EventID: next.EventID, Value: next.Value})
			consumed++
			cur = next
		}

		events = append(events, ee)
	}

	if consumed != totalRecords {
		return nil, fmt.Errorf("extrae: consumed %d records, expected %d: %w",
			consumed, totalRecords, xerrors.ErrRecordCountMismatch)
	}

	return &Result{
		StartWallclockSeconds: startWallclock,
		Events:                events,
		MaxCore:               maxCore,
		ThreadOrdinals:        threadOrdinals,
	}, nil
}
