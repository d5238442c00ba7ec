//go:build linux

// Package cpuid reports the logical CPU a record was taken on,
// best-effort.
package cpuid

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Current returns the logical CPU the calling goroutine's underlying
// OS thread is currently running on, or 0 if the kernel can't tell
// us. Record construction must never fail because of this call.
func Current() uint16 {
	var cpu uint32
	// getcpu(2) has no x/sys/unix wrapper; issue the raw syscall the
	// way internal/uring issues SYS_IO_URING_SETUP.
	_, _, errno := syscall.RawSyscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), 0, 0)
	if errno != 0 {
		return 0
	}
	if cpu > 0xffff {
		return 0
	}
	return uint16(cpu)
}
