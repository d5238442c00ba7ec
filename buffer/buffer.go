// Package buffer implements the per-thread bounded event queue and its
// append-only binary file backing.
//
// A Buffer is owned by exactly one goroutine/OS-thread pair at a time
// (see the root extrae package's Attach); it takes no locks of its
// own, so emission after a thread's first call never touches a shared
// lock.
package buffer

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/Ergus/Extrae-rs/internal/cpuid"
	"github.com/Ergus/Extrae-rs/internal/epoch"
	"github.com/Ergus/Extrae-rs/record"
)

// headerSize is the on-disk width of Header: id(4) + totalFlushed(4) +
// threadKey(8) + startWallclockSeconds(8) = 24 bytes.
const headerSize = 24

// MaxEntries bounds the in-memory queue: floor(1 MiB / record.Size).
const MaxEntries = (1 << 20) / record.Size

// Header is the fixed layout written at offset 0 of every per-thread
// file, and read back by the merge package.
type Header struct {
	Ordinal               uint32
	TotalFlushed          uint32
	ThreadKey             int64
	StartWallclockSeconds uint64
}

func (h Header) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Ordinal)
	binary.LittleEndian.PutUint32(buf[4:8], h.TotalFlushed)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(h.ThreadKey))
	binary.LittleEndian.PutUint64(buf[16:24], h.StartWallclockSeconds)
}

// GetHeader decodes a Header from buf, which must have length >=
// headerSize. Exported for the merge package.
func GetHeader(buf []byte) Header {
	return Header{
		Ordinal:               binary.LittleEndian.Uint32(buf[0:4]),
		TotalFlushed:          binary.LittleEndian.Uint32(buf[4:8]),
		ThreadKey:             int64(binary.LittleEndian.Uint64(buf[8:16])),
		StartWallclockSeconds: binary.LittleEndian.Uint64(buf[16:24]),
	}
}

// HeaderSize is exported so the merge package can size its reads
// without duplicating the constant.
const HeaderSize = headerSize

// Buffer is a single thread's in-memory event queue plus its backing
// file. The file is created lazily, on first Flush: a Buffer that
// never emits never creates a file (P2).
type Buffer struct {
	header Header
	path   string
	file   *os.File
	queue  []record.Record
}

// New returns a Buffer for the given ordinal/thread, backed by path.
// The file is not opened yet.
func New(ordinal uint32, threadKey int64, path string, startWallclockSeconds uint64) *Buffer {
	return &Buffer{
		header: Header{
			Ordinal:               ordinal,
			ThreadKey:             threadKey,
			StartWallclockSeconds: startWallclockSeconds,
		},
		path:  path,
		queue: make([]record.Record, 0, MaxEntries),
	}
}

// Ordinal is this buffer's dense, 1-based identity in the trace.
func (b *Buffer) Ordinal() uint32 { return b.header.Ordinal }

// Path is the backing file's path, whether or not it has been created
// yet.
func (b *Buffer) Path() string { return b.path }

// Len returns the number of records currently queued in memory.
func (b *Buffer) Len() int { return len(b.queue) }

// IsFull reports whether the next append would exceed MaxEntries.
func (b *Buffer) IsFull() bool { return len(b.queue) >= MaxEntries }

// Emplace appends a single record built at the current instant, on
// the current logical CPU, flushing first if the queue is full.
func (b *Buffer) Emplace(eventID uint16, value uint32) error {
	if b.IsFull() {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	b.queue = append(b.queue, record.Record{
		TimeNS:  epoch.Now(),
		CoreID:  cpuid.Current(),
		EventID: eventID,
		Value:   value,
	})
	return nil
}

// EmplaceMany appends pairs as records that all share one timestamp
// and core id, used to bind hardware-counter readings to a single
// time point. If the queue would overflow mid-batch, it is flushed
// first so the whole batch stays contiguous.
func (b *Buffer) EmplaceMany(pairs []record.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	if len(b.queue)+len(pairs) > MaxEntries {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	now := epoch.Now()
	core := cpuid.Current()
	for _, p := range pairs {
		b.queue = append(b.queue, record.Record{
			TimeNS:  now,
			CoreID:  core,
			EventID: p.EventID,
			Value:   p.Value,
		})
	}
	return nil
}

// Flush is a no-op if the queue is empty (the file is NOT created).
// Otherwise it opens the file if necessary, rewrites the header with
// the new total_flushed at offset 0, appends the queued records at
// end-of-file, and clears the queue.
func (b *Buffer) Flush() error {
	if len(b.queue) == 0 {
		return nil
	}

	if b.file == nil {
		f, err := os.OpenFile(b.path, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return fmt.Errorf("extrae: open %s: %w", b.path, err)
		}
		b.file = f
		hdr := make([]byte, headerSize)
		b.header.put(hdr)
		if _, err := b.file.WriteAt(hdr, 0); err != nil {
			return fmt.Errorf("extrae: write header %s: %w", b.path, err)
		}
	}

	b.header.TotalFlushed += uint32(len(b.queue))
	hdr := make([]byte, headerSize)
	b.header.put(hdr)
	if _, err := b.file.WriteAt(hdr, 0); err != nil {
		return fmt.Errorf("extrae: rewrite header %s: %w", b.path, err)
	}

	block := make([]byte, len(b.queue)*record.Size)
	for i, rec := range b.queue {
		rec.Put(block[i*record.Size : (i+1)*record.Size])
	}
	if _, err := b.file.Seek(0, 2); err != nil {
		return fmt.Errorf("extrae: seek end %s: %w", b.path, err)
	}
	if _, err := b.file.Write(block); err != nil {
		return fmt.Errorf("extrae: append records %s: %w", b.path, err)
	}

	b.queue = b.queue[:0]
	return nil
}

// Close flushes any remaining records and closes the backing file, if
// one was ever opened.
func (b *Buffer) Close() error {
	flushErr := b.Flush()
	var closeErr error
	if b.file != nil {
		closeErr = b.file.Close()
		b.file = nil
	}
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// TotalFlushed returns the number of records written to the file so
// far (not counting anything still queued in memory).
func (b *Buffer) TotalFlushed() uint32 { return b.header.TotalFlushed }
