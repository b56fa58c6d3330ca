package gc

import "sync"

// DefaultThreshold is the bytes_allocated level at or above which the
// next Alloc triggers a collection before the new block is serviced
// (spec.md §3). It is not grown after collection in the baseline.
const DefaultThreshold = 1024 * 1024

// BlockAllocator services the raw memory backing heap blocks. clib
// implements this over C.malloc/C.free; tests implement it over plain Go
// slices. Free is always called with the exact base/size pair that Alloc
// returned for that block, so alignment and bookkeeping need not be
// re-derived.
type BlockAllocator interface {
	// Alloc returns the base address of a fresh, zeroed, 8-byte-aligned
	// block of the given size, or 0 if the allocator is exhausted. size
	// is always > 0.
	Alloc(size uintptr) uintptr
	// Free releases a block previously returned by Alloc.
	Free(base, size uintptr)
}

// StackRange reports the current mutator OS thread's stack bounds,
// already normalized so low <= high (spec.md §4.3: direction of stack
// growth is not assumed). clib supplies the real POSIX implementation;
// Config.Stack lets tests and cmd/gcrt-console supply a synthetic range.
type StackRange func() (low, high uintptr)

// Config gathers the collector's tunables (SPEC_FULL.md §10).
type Config struct {
	// Threshold overrides DefaultThreshold when non-zero.
	Threshold uintptr
	// Allocator is required: it is the only way the collector obtains
	// or releases raw memory.
	Allocator BlockAllocator
	// Stack is required outside of tests that never call Collect.
	Stack StackRange
	// Logger receives trace/fatal diagnostics; defaults to a no-op
	// tracer that panics on Fatalf.
	Logger Logger
}

// Collector is the process-wide collector state described in spec.md §3.
// Exactly one should exist per process; Init constructs it, Shutdown
// tears it down. All public methods hold mu for their duration, so calls
// are serialized; under the single-mutator-thread contract it is never
// contended (SPEC_FULL.md §5). sync.Mutex is not reentrant: a nested
// public call made while one is in flight on the same goroutine (e.g.
// from a StackRange callback) blocks on mu; it does not panic.
// inCollection makes a nested collectLocked call report through Fatalf.
type Collector struct {
	mu sync.Mutex

	reg       *registry
	roots     *rootSet
	alloc     BlockAllocator
	stack     StackRange
	log       Logger
	threshold uintptr

	bytesAllocated uintptr
	inCollection   bool
}

// Init constructs a new, empty collector. Per spec.md §4.7, calling any
// other entry point before Init is undefined; this package's contract is
// that the zero value of Collector is never used directly — callers
// always go through Init.
func Init(cfg Config) *Collector {
	if cfg.Allocator == nil {
		panic("gc: Init requires a non-nil Allocator")
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Collector{
		reg:       newRegistry(),
		roots:     newRootSet(),
		alloc:     cfg.Allocator,
		stack:     cfg.Stack,
		log:       logger,
		threshold: threshold,
	}
}

// Alloc implements spec.md §4.6. size <= 0 returns 0 without touching
// state. Otherwise, if bytesAllocated >= threshold, a full collection
// runs first — deliberately before the new block exists, so the
// collector can never see it. Allocation failure is fatal.
func (c *Collector) Alloc(size int64) uintptr {
	if size <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bytesAllocated >= c.threshold {
		c.collectLocked()
	}

	base := c.alloc.Alloc(uintptr(size))
	if base == 0 {
		c.log.Fatalf("gc_alloc: out of memory requesting %d bytes", size)
		return 0 // unreachable: Fatalf must not return
	}

	c.reg.insert(base, uintptr(size))
	c.bytesAllocated += uintptr(size)
	c.log.Tracef("alloc base=%#x size=%d bytes_allocated=%d", base, size, c.bytesAllocated)
	return base
}

// AddGlobalRoot registers a root slot (spec.md §4.2). The GC does not
// own the slot's storage; generated code must keep it live and readable
// for the program's lifetime.
func (c *Collector) AddGlobalRoot(slot uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots.add(slot)
}

// Collect forces a full collection. It is a public entry point that
// generated code may call at will (spec.md §4.7), and is also the
// internal path taken by Alloc when the threshold is crossed.
func (c *Collector) Collect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collectLocked()
}

func (c *Collector) collectLocked() {
	if c.inCollection {
		c.log.Fatalf("gc: collect called re-entrantly")
		return
	}
	c.inCollection = true
	defer func() { c.inCollection = false }()

	if c.reg.len() == 0 {
		c.log.Tracef("collect: heap empty, nothing to do")
		return
	}

	rootValues := c.roots.values()
	var low, high uintptr
	if c.stack != nil {
		low, high = c.stack()
		if low > high {
			low, high = high, low
		}
	}

	newMarkEngine(c.reg).run(rootValues, low, high)
	freed := newSweepEngine(c.reg, c.alloc).run()

	c.bytesAllocated -= freed
	c.log.Tracef("collect: freed %d bytes, %d bytes retained, %d blocks live",
		freed, c.bytesAllocated, c.reg.len())
}

// Shutdown drains every remaining allocation unconditionally —
// irrespective of reachability — clears the root set, and resets
// bytesAllocated to zero (spec.md §4.7).
func (c *Collector) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reg.drain(func(base, size uintptr) {
		c.alloc.Free(base, size)
	})
	c.roots.clear()
	c.bytesAllocated = 0
}

// Stats is a read-only snapshot used by cmd/gcrt-console and
// cmd/gcrt-snapshot to report collector state without exposing mutable
// internals.
type Stats struct {
	BytesAllocated uintptr
	Threshold      uintptr
	LiveBlocks     int
}

func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		BytesAllocated: c.bytesAllocated,
		Threshold:      c.threshold,
		LiveBlocks:     c.reg.len(),
	}
}

// Snapshot returns a point-in-time copy of every live allocation record,
// for cmd/gcrt-snapshot. It does not mutate mark bits.
func (c *Collector) Snapshot() []Allocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Allocation, 0, len(c.reg.entries))
	for _, a := range c.reg.entries {
		out = append(out, *a)
	}
	return out
}
