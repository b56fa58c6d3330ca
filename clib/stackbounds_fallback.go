//go:build !linux && !darwin

package main

/*
#include <stdint.h>

static uintptr_t stack_top(void) {
	volatile uint8_t anchor;
	return (uintptr_t)&anchor;
}
*/
import "C"

import "golang.org/x/sys/unix"

// stackBounds is the catch-all POSIX fallback named in spec.md §9 for
// "the other common platforms": it has no direct pthread stack-address
// query wired up, so it approximates the outer bound from the process's
// RLIMIT_STACK rather than the true per-thread base. This is coarser --
// it assumes the calling thread's stack is the size of the configured
// limit -- but preserves the same [low, high) contract for the scanner.
func stackBounds() (low, high uintptr) {
	top := uintptr(C.stack_top())

	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_STACK, &rlim); err != nil || rlim.Cur == 0 {
		return top, top
	}

	base := top + uintptr(rlim.Cur)
	if top < base {
		return top, base
	}
	return base, top
}
