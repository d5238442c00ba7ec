package merge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ergus/Extrae-rs/record"
)

func TestWritePRVRefusesEmptyResult(t *testing.T) {
	r := &Result{}
	if err := r.WritePRV(filepath.Join(t.TempDir(), "Trace.prv")); err == nil {
		t.Fatalf("WritePRV should refuse an empty result")
	}
}

func TestWritePRVFormatsLines(t *testing.T) {
	r := &Result{
		StartWallclockSeconds: 1700000000,
		MaxCore:               2,
		ThreadOrdinals:        map[uint32]bool{1: true, 2: true},
		Events: []ExtendedEvent{
			{Time: 0, Core: 0, ThreadOrdinal: 1, Events: []record.Pair{{EventID: 10, Value: 1}}},
			{Time: 500, Core: 0, ThreadOrdinal: 1, Events: []record.Pair{{EventID: 10, Value: 0}, {EventID: 11, Value: 7}}},
		},
	}

	path := filepath.Join(t.TempDir(), "Trace.prv")
	if err := r.WritePRV(path); err != nil {
		t.Fatalf("WritePRV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a header line and 2 event lines, got %d: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "#Paraver") {
		t.Fatalf("first line should be the #Paraver header: %q", lines[0])
	}
	if lines[1] != "2:0:1:1:1:0:10:1" {
		t.Fatalf("unexpected first event line: %q", lines[1])
	}
	if lines[2] != "2:0:1:1:1:500:10:0:11:7" {
		t.Fatalf("unexpected second event line: %q", lines[2])
	}
}
