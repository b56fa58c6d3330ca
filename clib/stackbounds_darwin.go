//go:build darwin

package main

/*
#include <pthread.h>
#include <stdint.h>

static uintptr_t stack_top(void) {
	volatile uint8_t anchor;
	return (uintptr_t)&anchor;
}

// stack_base mirrors the original runtime's direct use of
// pthread_get_stackaddr_np(pthread_self()), which on Darwin returns the
// highest address of the thread's stack (the stack grows down from it).
static uintptr_t stack_base(void) {
	return (uintptr_t)pthread_get_stackaddr_np(pthread_self());
}
*/
import "C"

func stackBounds() (low, high uintptr) {
	top := uintptr(C.stack_top())
	base := uintptr(C.stack_base())
	if top < base {
		return top, base
	}
	return base, top
}
