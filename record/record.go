// Package record defines the fixed-size binary event record shared by
// every per-thread trace file and by the merge stage that reads them
// back.
//
// The layout is packed and little-endian, with no framing: a file is
// simply a header (see the buffer package) followed by Size*N bytes.
// The layout is an internal contract between the producer and the
// merger built from the same module; it carries no version and is not
// meant to outlive a single build, the way perf.data's fileAttr is
// meant to.
package record

import "encoding/binary"

// Size is the on-disk and in-memory width of a Record, in bytes.
//
//	time_ns  uint64 (8)
//	core_id  uint16 (2)
//	event_id uint16 (2)
//	value    uint32 (4)
const Size = 16

// MaxUserEventID is the top of the user-assignable event id range.
// Ids above this are reserved for ids the library assigns itself.
const MaxUserEventID = 32767

// MaxEventID is the largest representable event id.
const MaxEventID = 65535

// A Record is a single time-stamped observation.
//
// EventID is never 0: 0 is reserved to mean "no event" in contexts
// that need a zero value (e.g. an unused slot). Value is
// event-specific; by convention 0 means "leave" and a non-zero value
// means "enter" or a user payload.
type Record struct {
	TimeNS  uint64
	CoreID  uint16
	EventID uint16
	Value   uint32
}

// Put encodes r into buf, which must have length >= Size.
func (r Record) Put(buf []byte) {
	_ = buf[Size-1] // bounds check hint, mirrors bufDecoder's slice-driven decode
	binary.LittleEndian.PutUint64(buf[0:8], r.TimeNS)
	binary.LittleEndian.PutUint16(buf[8:10], r.CoreID)
	binary.LittleEndian.PutUint16(buf[10:12], r.EventID)
	binary.LittleEndian.PutUint32(buf[12:16], r.Value)
}

// Get decodes a Record from buf, which must have length >= Size.
func Get(buf []byte) Record {
	_ = buf[Size-1]
	return Record{
		TimeNS:  binary.LittleEndian.Uint64(buf[0:8]),
		CoreID:  binary.LittleEndian.Uint16(buf[8:10]),
		EventID: binary.LittleEndian.Uint16(buf[10:12]),
		Value:   binary.LittleEndian.Uint32(buf[12:16]),
	}
}

// SameHeader reports whether r and o share the (TimeNS, CoreID) pair
// that the merger uses to group records into a single extended event
// (see the drain loop in merge.Merge).
func (r Record) SameHeader(o Record) bool {
	return r.TimeNS == o.TimeNS && r.CoreID == o.CoreID
}

// Pair is an (event id, value) observation not yet bound to a time
// point; EmplaceMany on a buffer binds a whole slice of Pairs to one
// timestamp and core id.
type Pair struct {
	EventID uint16
	Value   uint32
}
