//go:build linux

package main

/*
#include <pthread.h>
#include <stdint.h>

// stack_top captures the address of a local variable. Because cgo always
// executes C function bodies on the calling OS thread's real stack (not a
// Go goroutine stack), this address lies within the mutator's actual
// stack frame at the moment gc_collect was entered -- the "innermost
// bound" spec.md §4.3 calls stack_top.
static uintptr_t stack_top(void) {
	volatile uint8_t anchor;
	return (uintptr_t)&anchor;
}

// stack_base queries glibc's pthread attributes for the outer bound of
// the calling thread's stack, per spec.md §9's "single POSIX flavor"
// baseline -- this is the Linux flavor.
static uintptr_t stack_base(void) {
	pthread_attr_t attr;
	void *addr = 0;
	size_t size = 0;

	if (pthread_getattr_np(pthread_self(), &attr) != 0) {
		return 0;
	}
	if (pthread_attr_getstack(&attr, &addr, &size) != 0) {
		pthread_attr_destroy(&attr);
		return 0;
	}
	pthread_attr_destroy(&attr);

	// pthread_attr_getstack reports the lowest addressable byte; the
	// stack on this platform grows downward from addr+size.
	return (uintptr_t)addr + (uintptr_t)size;
}
*/
import "C"

// stackBounds implements gc.StackRange for Linux, normalizing the raw
// top/base query into [low, high) as spec.md §4.3 requires.
func stackBounds() (low, high uintptr) {
	top := uintptr(C.stack_top())
	base := uintptr(C.stack_base())
	if base == 0 {
		// pthread query failed; fall back to an empty range anchored
		// at top so the scanner degrades to "see nothing"
		// rather than reading unrelated memory.
		return top, top
	}
	if top < base {
		return top, base
	}
	return base, top
}
