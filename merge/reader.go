package merge

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/Ergus/Extrae-rs/buffer"
	"github.com/Ergus/Extrae-rs/internal/xerrors"
	"github.com/Ergus/Extrae-rs/record"
)

// fileStream streams the records of one per-thread .bin file in file
// order, using a buffered reader the way perffile's
// bufferedSectionReader streams a perf.data record section: simpler
// here because we only ever read forward, sequentially, so a plain
// bufio.Reader suffices (see DESIGN.md).
type fileStream struct {
	index     int
	ordinal   uint32
	threadKey int64
	total     uint32
	consumed  uint32
	r         *bufio.Reader
	f         *os.File
}

func (fs *fileStream) next() (record.Record, bool, error) {
	if fs.consumed >= fs.total {
		if _, err := fs.r.Peek(1); err == nil {
			return record.Record{}, false, fmt.Errorf("extrae: %s holds more than its declared %d records: %w",
				fs.f.Name(), fs.total, xerrors.ErrRecordCountMismatch)
		}
		return record.Record{}, false, nil
	}
	buf := make([]byte, record.Size)
	if _, err := io.ReadFull(fs.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = fmt.Errorf("%w: %w", xerrors.ErrRecordCountMismatch, err)
		}
		return record.Record{}, false, fmt.Errorf("extrae: read record %d/%d from %s: %w",
			fs.consumed+1, fs.total, fs.f.Name(), err)
	}
	fs.consumed++
	return record.Get(buf), true, nil
}

func (fs *fileStream) close() error {
	return fs.f.Close()
}

var traceFileRE = regexp.MustCompile(`^Trace_(\d+)\.bin$`)

// discoverTraceFiles lists dir's Trace_<k>.bin files in ascending
// numeric ordinal order (not lexical: Trace_10 must sort after
// Trace_2).
func discoverTraceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("extrae: read trace dir %s: %w", dir, err)
	}

	type numbered struct {
		n    int
		path string
	}
	var files []numbered
	for _, e := range entries {
		m := traceFileRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, numbered{n, filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}

func openStream(index int, path string) (*fileStream, buffer.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, buffer.Header{}, fmt.Errorf("extrae: open %s: %w", path, err)
	}
	hdrBuf := make([]byte, buffer.HeaderSize)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		f.Close()
		return nil, buffer.Header{}, fmt.Errorf("extrae: read header %s: %w", path, err)
	}
	hdr := buffer.GetHeader(hdrBuf)
	return &fileStream{
		index:     index,
		ordinal:   hdr.Ordinal,
		threadKey: hdr.ThreadKey,
		total:     hdr.TotalFlushed,
		r:         bufio.NewReaderSize(f, 64<<10),
		f:         f,
	}, hdr, nil
}
