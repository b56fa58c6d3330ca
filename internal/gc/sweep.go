package gc

// sweepEngine walks the registry once after marking completes, freeing
// every unmarked block through the supplied allocator and clearing the
// mark bit on every survivor (spec.md §4.5). Ordering is irrelevant:
// there are no finalizer semantics.
type sweepEngine struct {
	reg   *registry
	alloc BlockAllocator
}

func newSweepEngine(reg *registry, alloc BlockAllocator) *sweepEngine {
	return &sweepEngine{reg: reg, alloc: alloc}
}

// run returns the number of bytes freed.
func (s *sweepEngine) run() uintptr {
	return s.reg.sweep(func(base, size uintptr) {
		s.alloc.Free(base, size)
	})
}
