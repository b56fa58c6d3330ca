// Command clib is the C-ABI boundary of the gcrt runtime core. Built with
// `go build -buildmode=c-archive`, it produces a static archive plus a
// generated header that compiled mutator code links against directly.
// Every exported symbol here is a thin wrapper: all real logic lives in
// internal/gc, which this package drives through the gc.BlockAllocator
// and gc.StackRange hooks (SPEC_FULL.md §2).
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/minilang/gcrt/internal/config"
	"github.com/minilang/gcrt/internal/gc"
)

// collector is the process-wide singleton constructed by gc_init. It is
// nil until gc_init runs; every other entry point's behavior before that
// is undefined per spec.md §4.7, and this package aborts rather than
// silently corrupting state if that contract is violated.
var collector *gc.Collector

func requireInit() *gc.Collector {
	if collector == nil {
		fatalf("gcrt: entry point called before gc_init")
	}
	return collector
}

//export gc_init
func gc_init() {
	cfg, err := config.Load(configPathFromEnv())
	if err != nil {
		fatalf("gcrt: loading config: %v", err)
	}
	collector = gc.Init(gc.Config{
		Threshold: uintptr(cfg.ThresholdBytes),
		Allocator: cMallocAllocator{},
		Stack:     stackBounds,
		Logger:    newConsoleLogger(cfg.Debug),
	})
}

//export gc_alloc
func gc_alloc(size C.int64_t) *C.uint8_t {
	base := requireInit().Alloc(int64(size))
	return (*C.uint8_t)(uintptrToPointer(base))
}

//export gc_collect
func gc_collect() {
	requireInit().Collect()
}

//export gc_add_global_root
func gc_add_global_root(slot **C.uint8_t) {
	requireInit().AddGlobalRoot(pointerToUintptr(unsafe.Pointer(slot)))
}

//export gc_shutdown
func gc_shutdown() {
	requireInit().Shutdown()
	collector = nil
}

func main() {
	// Required by -buildmode=c-archive; the mutator never calls this.
}
