package buffer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ergus/Extrae-rs/record"
)

func TestNeverEmittedNeverCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Trace_1.bin")
	b := New(1, 100, path, 0)

	if err := b.Close(); err != nil {
		t.Fatalf("Close on empty buffer: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file at %s, stat returned %v", path, err)
	}
}

func TestEmplaceFlushClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Trace_1.bin")
	b := New(1, 100, path, 1700000000)

	if err := b.Emplace(10, 1); err != nil {
		t.Fatalf("Emplace: %v", err)
	}
	if err := b.Emplace(10, 0); err != nil {
		t.Fatalf("Emplace: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if b.TotalFlushed() != 2 {
		t.Fatalf("TotalFlushed() = %d, want 2", b.TotalFlushed())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	wantLen := HeaderSize + 2*record.Size
	if len(data) != wantLen {
		t.Fatalf("file length = %d, want %d", len(data), wantLen)
	}

	hdr := GetHeader(data[:HeaderSize])
	if hdr.Ordinal != 1 || hdr.ThreadKey != 100 || hdr.TotalFlushed != 2 || hdr.StartWallclockSeconds != 1700000000 {
		t.Fatalf("unexpected header: %+v", hdr)
	}

	rec := record.Get(data[HeaderSize : HeaderSize+record.Size])
	if rec.EventID != 10 || rec.Value != 1 {
		t.Fatalf("unexpected first record: %+v", rec)
	}
}

func TestFlushOnFullQueue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Trace_1.bin")
	b := New(1, 1, path, 0)

	for i := 0; i < MaxEntries+1; i++ {
		if err := b.Emplace(1, uint32(i)); err != nil {
			t.Fatalf("Emplace #%d: %v", i, err)
		}
	}
	if b.Len() != 1 {
		t.Fatalf("Len() after overflow = %d, want 1 (rest flushed)", b.Len())
	}
	if b.TotalFlushed() != MaxEntries {
		t.Fatalf("TotalFlushed() = %d, want %d", b.TotalFlushed(), MaxEntries)
	}
}

func TestEmplaceManyBindsSharedTimestamp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Trace_1.bin")
	b := New(1, 1, path, 0)

	pairs := []record.Pair{{EventID: 100, Value: 1}, {EventID: 100, Value: 2}}
	if err := b.EmplaceMany(pairs); err != nil {
		t.Fatalf("EmplaceMany: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	r0 := record.Get(data[HeaderSize : HeaderSize+record.Size])
	r1 := record.Get(data[HeaderSize+record.Size : HeaderSize+2*record.Size])
	if !r0.SameHeader(r1) {
		t.Fatalf("EmplaceMany records should share (time, core): %+v vs %+v", r0, r1)
	}
}
