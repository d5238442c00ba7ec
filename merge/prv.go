package merge

import (
	"bufio"
	"fmt"
	"os"
	"time"
)

// WritePRV externalizes r as a Paraver trace at path.
func (r *Result) WritePRV(path string) error {
	if len(r.Events) == 0 {
		return fmt.Errorf("extrae: refusing to write empty .prv")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("extrae: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	duration := r.Events[len(r.Events)-1].Time - r.Events[0].Time
	date := time.Unix(int64(r.StartWallclockSeconds), 0).Format("02/01/2006 at 15:04")

	if _, err := fmt.Fprintf(w, "#Paraver (%s):%d_ns:1(%d):1:1(%d:1)\n",
		date, duration, r.MaxCore, len(r.ThreadOrdinals)); err != nil {
		return err
	}

	for _, ee := range r.Events {
		if _, err := fmt.Fprintf(w, "2:%d:1:1:%d:%d", ee.Core, ee.ThreadOrdinal, ee.Time); err != nil {
			return err
		}
		for _, p := range ee.Events {
			if _, err := fmt.Fprintf(w, ":%d:%d", p.EventID, p.Value); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return w.Flush()
}
