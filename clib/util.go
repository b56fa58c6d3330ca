package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"os"
	"unsafe"
)

// uintptrToPointer turns a gc.Collector base address (0 meaning "null")
// back into a C pointer for return across the ABI boundary.
func uintptrToPointer(base uintptr) unsafe.Pointer {
	if base == 0 {
		return nil
	}
	return unsafe.Pointer(base) //nolint:govet // deliberate uintptr->pointer conversion at the cgo boundary
}

// pointerToUintptr is the inverse: any C pointer value crossing into Go
// becomes a plain uintptr for internal/gc to key and compare by.
func pointerToUintptr(p unsafe.Pointer) uintptr {
	return uintptr(p)
}

func configPathFromEnv() string {
	return os.Getenv("GCRT_CONFIG")
}

// fatalf reports a fatal diagnostic and aborts the process, matching
// spec.md §7: allocator exhaustion and misuse-before-init are never
// recoverable, so generated code never sees an error value for them.
func fatalf(format string, args ...any) {
	newConsoleLogger(true).Fatalf(format, args...)
}
