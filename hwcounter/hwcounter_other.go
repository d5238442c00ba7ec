//go:build !linux

package hwcounter

import "fmt"

func init() {
	names = map[string]counterSpec{}
}

// openPlatform has no implementation outside Linux: perf_event_open is
// a Linux-only syscall.
func openPlatform(name string) (read func() (uint64, error), close func() error, err error) {
	return nil, nil, fmt.Errorf("hwcounter: %q unavailable: hardware counters require linux", name)
}
