//go:build linux

package hwcounter

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// perfEventAttr mirrors the header shared by every ABI version of
// struct perf_event_attr (see
// perffile/format.go's eventAttrV0 for the on-disk counterpart of the
// same layout); only the fields perf_event_open needs to open a
// plain, non-sampling counter are populated.
type perfEventAttr struct {
	Type             uint32
	Size             uint32
	Config           uint64
	SamplePeriod     uint64
	SampleType       uint64
	ReadFormat       uint64
	Flags            uint64
	WakeupEvents     uint32
	BPType           uint32
	Config1          uint64
	Config2          uint64
	BranchSampleType uint64
	SampleRegsUser   uint64
	SampleStackUser  uint32
	ClockID          int32
	SampleRegsIntr   uint64
	AuxWatermark     uint32
	SampleMaxStack   uint16
	Pad              uint16
}

func init() {
	names = map[string]counterSpec{
		"cycles":                  {kind: unix.PERF_TYPE_HARDWARE, config: unix.PERF_COUNT_HW_CPU_CYCLES},
		"instructions":            {kind: unix.PERF_TYPE_HARDWARE, config: unix.PERF_COUNT_HW_INSTRUCTIONS},
		"cache-references":        {kind: unix.PERF_TYPE_HARDWARE, config: unix.PERF_COUNT_HW_CACHE_REFERENCES},
		"cache-misses":            {kind: unix.PERF_TYPE_HARDWARE, config: unix.PERF_COUNT_HW_CACHE_MISSES},
		"branch-instructions":     {kind: unix.PERF_TYPE_HARDWARE, config: unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS},
		"branch-misses":           {kind: unix.PERF_TYPE_HARDWARE, config: unix.PERF_COUNT_HW_BRANCH_MISSES},
		"bus-cycles":              {kind: unix.PERF_TYPE_HARDWARE, config: unix.PERF_COUNT_HW_BUS_CYCLES},
		"stalled-cycles-frontend": {kind: unix.PERF_TYPE_HARDWARE, config: unix.PERF_COUNT_HW_STALLED_CYCLES_FRONTEND},
		"stalled-cycles-backend":  {kind: unix.PERF_TYPE_HARDWARE, config: unix.PERF_COUNT_HW_STALLED_CYCLES_BACKEND},
		"ref-cpu-cycles":          {kind: unix.PERF_TYPE_HARDWARE, config: unix.PERF_COUNT_HW_REF_CPU_CYCLES},
		"page-faults":             {kind: unix.PERF_TYPE_SOFTWARE, config: unix.PERF_COUNT_SW_PAGE_FAULTS},
		"context-switches":        {kind: unix.PERF_TYPE_SOFTWARE, config: unix.PERF_COUNT_SW_CONTEXT_SWITCHES},
		"cpu-migrations":          {kind: unix.PERF_TYPE_SOFTWARE, config: unix.PERF_COUNT_SW_CPU_MIGRATIONS},
		"page-faults-min":         {kind: unix.PERF_TYPE_SOFTWARE, config: unix.PERF_COUNT_SW_PAGE_FAULTS_MIN},
		"page-faults-maj":         {kind: unix.PERF_TYPE_SOFTWARE, config: unix.PERF_COUNT_SW_PAGE_FAULTS_MAJ},
	}
}

// openPlatform opens a per-thread, per-any-cpu counter for name via
// perf_event_open(2), grounded on the raw-syscall style
// ehrlich-b-go-ublk/internal/uring uses for io_uring setup and on the
// eventAttrV0 field layout perffile/format.go documents for the
// on-disk form of the same struct.
func openPlatform(name string) (read func() (uint64, error), close func() error, err error) {
	spec, ok := names[name]
	if !ok {
		return nil, nil, fmt.Errorf("hwcounter: unknown counter %q", name)
	}

	attr := perfEventAttr{
		Type:   spec.kind,
		Config: spec.config,
	}
	attr.Size = uint32(unsafe.Sizeof(attr))
	attr.Flags = 1 << 0 // PERF_EVENT_ATTR_DISABLED: start disabled, enable explicitly below

	fd, _, errno := unix.Syscall6(
		unix.SYS_PERF_EVENT_OPEN,
		uintptr(unsafe.Pointer(&attr)),
		uintptr(0),  // pid: this thread
		^uintptr(0), // cpu: -1, any cpu
		^uintptr(0), // group_fd: -1, own group
		uintptr(0),  // flags
		0,
	)
	if errno != 0 {
		return nil, nil, fmt.Errorf("hwcounter: perf_event_open(%q): %w", name, errno)
	}
	ifd := int(fd)

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, unix.PERF_EVENT_IOC_RESET, 0); errno != 0 {
		unix.Close(ifd)
		return nil, nil, fmt.Errorf("hwcounter: reset %q: %w", name, errno)
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, unix.PERF_EVENT_IOC_ENABLE, 0); errno != 0 {
		unix.Close(ifd)
		return nil, nil, fmt.Errorf("hwcounter: enable %q: %w", name, errno)
	}

	read = func() (uint64, error) {
		var buf [8]byte
		n, err := unix.Read(ifd, buf[:])
		if err != nil {
			return 0, fmt.Errorf("hwcounter: read %q: %w", name, err)
		}
		if n != 8 {
			return 0, fmt.Errorf("hwcounter: short read (%d bytes) for %q", n, name)
		}
		return binary.LittleEndian.Uint64(buf[:]), nil
	}
	close = func() error {
		return unix.Close(ifd)
	}
	return read, close, nil
}
