// Command extraedump prints the header and records of one or more
// per-thread Trace_<k>.bin files as text, the way perfdump dumps the
// raw contents of a perf.data profile.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/Ergus/Extrae-rs/buffer"
	"github.com/Ergus/Extrae-rs/record"
)

func main() {
	var flagDir = flag.String("dir", "", "trace `directory` whose Trace_*.bin files to dump (required)")
	flag.Parse()
	if *flagDir == "" || flag.NArg() > 0 {
		flag.Usage()
		log.Fatal("extraedump: -dir is required")
	}

	matches, err := filepath.Glob(filepath.Join(*flagDir, "Trace_*.bin"))
	if err != nil {
		log.Fatalf("extraedump: %v", err)
	}
	if len(matches) == 0 {
		log.Fatalf("extraedump: no Trace_*.bin files in %s", *flagDir)
	}

	for _, path := range matches {
		if err := dumpFile(path); err != nil {
			log.Fatalf("extraedump: %s: %v", path, err)
		}
	}
}

func dumpFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hdrBuf := make([]byte, buffer.HeaderSize)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	hdr := buffer.GetHeader(hdrBuf)
	fmt.Printf("%s: %+v\n", path, hdr)

	recBuf := make([]byte, record.Size)
	var n uint32
	for {
		if _, err := io.ReadFull(f, recBuf); err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("read record %d: %w", n, err)
		}
		rec := record.Get(recBuf)
		fmt.Printf("  %+v\n", rec)
		n++
	}

	if n != hdr.TotalFlushed {
		fmt.Printf("  warning: read %d records, header claims %d\n", n, hdr.TotalFlushed)
	}
	return nil
}
