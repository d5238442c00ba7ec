// Command extraemerge re-runs the merge stage over an existing trace
// directory, writing (or overwriting) its Trace.prv. It exists for the
// cfg.AutoMerge=false path: a directory captured with automerge off
// has Trace_<k>.bin, Trace.row and Trace.pcf but no Trace.prv until
// this is run.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/Ergus/Extrae-rs/merge"
)

func main() {
	var flagDir = flag.String("dir", "", "trace `directory` to merge (required)")
	flag.Parse()
	if *flagDir == "" || flag.NArg() > 0 {
		flag.Usage()
		log.Fatal("extraemerge: -dir is required")
	}

	result, err := merge.Merge(*flagDir)
	if err != nil {
		log.Fatalf("extraemerge: %v", err)
	}

	out := filepath.Join(*flagDir, "Trace.prv")
	if err := result.WritePRV(out); err != nil {
		log.Fatalf("extraemerge: %v", err)
	}

	fmt.Printf("wrote %s: %d events across %d threads, max core %d\n",
		out, len(result.Events), len(result.ThreadOrdinals), result.MaxCore)
}
