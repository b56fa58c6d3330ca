package main

import (
	"bytes"
	"testing"

	"github.com/minilang/gcrt/internal/gc"
)

func newTestConsole() *console {
	c := &console{out: &bytes.Buffer{}}
	c.gc = gc.Init(gc.Config{Allocator: heapAllocator{}, Stack: c.stackRange})
	return c
}

// Regression test for the dangling-root bug the maintainer review caught:
// a root registered against an early slot must survive enough further
// allocs to force c.boxes to grow past its initial capacity.
func TestRootSurvivesSlotSliceGrowth(t *testing.T) {
	c := newTestConsole()

	c.cmdAlloc([]string{"32"})
	c.cmdRoot([]string{"0"})

	for i := 0; i < 64; i++ {
		c.cmdAlloc([]string{"16"})
	}

	c.gc.Collect()

	stats := c.gc.Stats()
	if stats.LiveBlocks < 1 {
		t.Fatalf("live blocks = %d, want at least the rooted slot 0 block", stats.LiveBlocks)
	}
}

func TestStackScanSurvivesAcrossCollects(t *testing.T) {
	c := newTestConsole()

	c.cmdAlloc([]string{"8"})
	c.gc.Collect()

	if got := c.gc.Stats().LiveBlocks; got != 1 {
		t.Fatalf("live blocks = %d, want 1 (slot 0 still on the synthetic stack)", got)
	}
}

func TestRootBadIndexRejected(t *testing.T) {
	c := newTestConsole()
	c.cmdRoot([]string{"0"})
	out := c.out.(*bytes.Buffer).String()
	if !bytes.Contains([]byte(out), []byte("bad slot index")) {
		t.Fatalf("output = %q, want a bad-slot-index message", out)
	}
}
