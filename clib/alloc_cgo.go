package main

/*
#include <stdlib.h>
#include <string.h>
*/
import "C"

import "unsafe"

// cMallocAllocator satisfies gc.BlockAllocator over libc's allocator,
// grounded directly on the teacher's extalloc/extfree external-allocator
// pattern in gc_extalloc.go — here "external" means libc rather than a
// host-supplied WASM import, since this library targets a native POSIX
// process rather than a WASM runtime.
type cMallocAllocator struct{}

func (cMallocAllocator) Alloc(size uintptr) uintptr {
	ptr := C.malloc(C.size_t(size))
	if ptr == nil {
		return 0
	}
	C.memset(ptr, 0, C.size_t(size))
	return uintptr(ptr)
}

func (cMallocAllocator) Free(base, size uintptr) {
	C.free(unsafe.Pointer(base)) //nolint:govet // uintptr->pointer at the allocator boundary is the point of this type
}
