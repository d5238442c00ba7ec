// Package hwcounter is the hardware-counter manager external
// collaborator: given a list of named counters, it opens a counter
// Group whose Sample method reads them into (event_id, value) pairs,
// for Buffer.EmplaceMany to bind to a single time point.
//
// The counter-name table is grounded on
// other_examples/...aclements-go-perfevent__events-builtin.go's
// builtin hardware/software event tables, restricted to the fixed set
// of counter names the engine recognizes.
package hwcounter

// counterSpec names one perf_event_open() event: its type (hardware or
// software) and config value, mirroring the (pmu, config) pairs
// go-perfevent's resolveBuiltinEvent resolves builtin names to.
type counterSpec struct {
	kind   uint32
	config uint64
}

// names is populated per-platform (hwcounter_linux.go uses real
// unix.PERF_TYPE_*/PERF_COUNT_* values; hwcounter_other.go leaves it
// empty since openPlatform always fails there).
var names map[string]counterSpec

// Names returns the counter names this build can actually open.
func Names() []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	return out
}
