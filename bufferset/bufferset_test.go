package bufferset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireAssignsDenseOrdinals(t *testing.T) {
	bs := New(t.TempDir())

	o1, _ := bs.AcquireForThread(100)
	o2, _ := bs.AcquireForThread(200)
	if o1 != 1 || o2 != 2 {
		t.Fatalf("expected ordinals 1, 2; got %d, %d", o1, o2)
	}
	if bs.Running() != 2 {
		t.Fatalf("Running() = %d, want 2", bs.Running())
	}
}

func TestRetireRecyclesOrdinalForSameKey(t *testing.T) {
	bs := New(t.TempDir())

	o1, _ := bs.AcquireForThread(100)
	if _, err := bs.Retire(100, o1); err != nil {
		t.Fatalf("Retire: %v", err)
	}
	if bs.Running() != 0 {
		t.Fatalf("Running() = %d, want 0", bs.Running())
	}

	o2, _ := bs.AcquireForThread(100)
	if o2 != o1 {
		t.Fatalf("recycled thread key should reuse ordinal %d, got %d", o1, o2)
	}
	if bs.EverSeen() != 1 {
		t.Fatalf("EverSeen() = %d, want 1 (no new ordinal for a recycled key)", bs.EverSeen())
	}
}

func TestAcquireDoesNotRecordOrdinalUntilRetire(t *testing.T) {
	bs := New(t.TempDir())
	o1, _ := bs.AcquireForThread(100)

	// Acquiring the same thread key again before it retires must get a
	// fresh ordinal, not reuse 100's — AcquireForThread must not have
	// written thread_key -> ordinal for 100 yet.
	o2, _ := bs.AcquireForThread(100)
	if o2 == o1 {
		t.Fatalf("key 100 reused ordinal %d before retiring: ordinal was recorded at acquire time", o1)
	}
}

func TestWriteRowRequiresNoRunningThreads(t *testing.T) {
	bs := New(t.TempDir())
	bs.AcquireForThread(100)

	if err := bs.WriteRow(filepath.Join(t.TempDir(), "Trace.row")); err == nil {
		t.Fatalf("WriteRow should refuse while a thread is still running")
	}
}

func TestWriteRowListsThreadsByOrdinal(t *testing.T) {
	dir := t.TempDir()
	bs := New(dir)

	o1, _ := bs.AcquireForThread(100)
	o2, _ := bs.AcquireForThread(200)
	if _, err := bs.Retire(100, o1); err != nil {
		t.Fatalf("Retire: %v", err)
	}
	if _, err := bs.Retire(200, o2); err != nil {
		t.Fatalf("Retire: %v", err)
	}

	path := filepath.Join(dir, "Trace.row")
	if err := bs.WriteRow(path); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "LEVEL THREAD SIZE 2") {
		t.Fatalf(".row should report two threads:\n%s", content)
	}
	if !strings.Contains(content, "THREAD 1.1.1") || !strings.Contains(content, "THREAD 1.1.2") {
		t.Fatalf(".row should list both thread ordinals:\n%s", content)
	}
}

func TestWriteRowWithNoThreadsEverAcquired(t *testing.T) {
	dir := t.TempDir()
	bs := New(dir)
	path := filepath.Join(dir, "Trace.row")
	if err := bs.WriteRow(path); err != nil {
		t.Fatalf("WriteRow with no threads ever acquired: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "LEVEL THREAD SIZE 0") {
		t.Fatalf("a BufferSet that never acquired a thread should report zero:\n%s", string(data))
	}
}
