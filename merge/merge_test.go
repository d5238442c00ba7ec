package merge

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/Ergus/Extrae-rs/buffer"
	"github.com/Ergus/Extrae-rs/internal/xerrors"
	"github.com/Ergus/Extrae-rs/record"
)

type rawRecord struct {
	time  uint64
	core  uint16
	event uint16
	value uint32
}

// writeFixture writes a per-thread trace file byte-for-byte in the
// format buffer.Buffer.Flush produces, but with caller-chosen
// timestamps instead of the real epoch clock, so merge ordering can
// be tested deterministically.
func writeFixture(t *testing.T, dir string, ordinal uint32, threadKey int64, start uint64, recs []rawRecord) {
	t.Helper()

	hdr := make([]byte, buffer.HeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:4], ordinal)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(recs)))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(threadKey))
	binary.LittleEndian.PutUint64(hdr[16:24], start)

	body := make([]byte, len(recs)*record.Size)
	for i, rr := range recs {
		r := record.Record{TimeNS: rr.time, CoreID: rr.core, EventID: rr.event, Value: rr.value}
		r.Put(body[i*record.Size : (i+1)*record.Size])
	}

	path := filepath.Join(dir, "Trace_"+strconv.Itoa(int(ordinal))+".bin")
	if err := os.WriteFile(path, append(hdr, body...), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}

func TestMergeEmptyDirReturnsErrEmptyTrace(t *testing.T) {
	dir := t.TempDir()
	if _, err := Merge(dir); !errors.Is(err, xerrors.ErrEmptyTrace) {
		t.Fatalf("Merge on empty dir: got %v, want ErrEmptyTrace", err)
	}
}

func TestMergeSortsAcrossFiles(t *testing.T) {
	dir := t.TempDir()

	// Thread 1 emits at t=100, thread 2 at t=50: globally, thread 2's
	// record must come first despite being in the higher-numbered file.
	writeFixture(t, dir, 1, 10, 0, []rawRecord{{time: 100, core: 0, event: 1, value: 1}})
	writeFixture(t, dir, 2, 20, 0, []rawRecord{{time: 50, core: 0, event: 2, value: 1}})

	result, err := Merge(dir)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(result.Events) != 2 {
		t.Fatalf("Events count = %d, want 2", len(result.Events))
	}
	if result.Events[0].Time != 50 || result.Events[1].Time != 100 {
		t.Fatalf("events not sorted by time: %+v", result.Events)
	}
}

func TestMergeGroupsSameHeaderWithinFileOnly(t *testing.T) {
	dir := t.TempDir()

	// File 1 has two records sharing (time=10, core=0): they must
	// group into a single ExtendedEvent. File 2 independently has a
	// record at the same (time, core) — grouping must NOT cross files.
	writeFixture(t, dir, 1, 10, 0, []rawRecord{
		{time: 10, core: 0, event: 1, value: 1},
		{time: 10, core: 0, event: 2, value: 2},
	})
	writeFixture(t, dir, 2, 20, 0, []rawRecord{
		{time: 10, core: 0, event: 3, value: 3},
	})

	result, err := Merge(dir)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(result.Events) != 2 {
		t.Fatalf("Events count = %d, want 2 (one grouped pair, one singleton)", len(result.Events))
	}

	var grouped, singleton *ExtendedEvent
	for i := range result.Events {
		if len(result.Events[i].Events) == 2 {
			grouped = &result.Events[i]
		} else {
			singleton = &result.Events[i]
		}
	}
	if grouped == nil || singleton == nil {
		t.Fatalf("expected one 2-event group and one singleton: %+v", result.Events)
	}
	if grouped.ThreadOrdinal != 1 || singleton.ThreadOrdinal != 2 {
		t.Fatalf("unexpected thread ordinals: grouped=%d singleton=%d", grouped.ThreadOrdinal, singleton.ThreadOrdinal)
	}
}

func TestMergeHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, 1, 10, 100, []rawRecord{{time: 1, core: 0, event: 1, value: 1}})
	writeFixture(t, dir, 2, 20, 200, []rawRecord{{time: 2, core: 0, event: 1, value: 1}})

	if _, err := Merge(dir); !errors.Is(err, xerrors.ErrHeaderMismatch) {
		t.Fatalf("Merge with disagreeing start times: got %v, want ErrHeaderMismatch", err)
	}
}

func TestMergeRecordCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, 1, 10, 0, []rawRecord{{time: 1, core: 0, event: 1, value: 1}})

	// Corrupt the declared total_flushed to claim one more record than
	// the file actually holds.
	path := filepath.Join(dir, "Trace_1.bin")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	binary.LittleEndian.PutUint32(data[4:8], 2)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Merge(dir); err == nil {
		t.Fatalf("Merge should fail on a truncated file with an inflated header count")
	}
}
