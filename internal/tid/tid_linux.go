//go:build linux

// Package tid identifies the OS thread underlying the calling
// goroutine, since Go otherwise exposes no portable thread identity
// to key per-thread buffers by.
package tid

import "golang.org/x/sys/unix"

// Current returns the kernel thread id of the OS thread currently
// running the calling goroutine.
//
// This is only stable for the duration of a single call unless the
// caller has pinned its goroutine to the OS thread with
// runtime.LockOSThread; extrae.Attach does this for callers that need
// a durable per-thread identity.
func Current() int64 {
	return int64(unix.Gettid())
}
