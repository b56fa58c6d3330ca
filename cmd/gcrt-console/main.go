// Command gcrt-console is an interactive REPL for exercising the
// collector core directly (SPEC_FULL.md §11.2), without linking a real
// mutator. It is useful for walking through the scenarios in spec.md §8
// by hand, and links internal/gc with no cgo involved: its "stack" is a
// synthetic range over a handful of named slots the console itself owns.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"unsafe"

	"github.com/google/shlex"
	"github.com/inhies/go-bytesize"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-tty"

	"github.com/minilang/gcrt/internal/config"
	"github.com/minilang/gcrt/internal/gc"
)

// console holds the interpreter's view of "stack slots": each `alloc`
// stores its result in a new slot, and `root` registers a slot as a
// global root. The slots stand in for the local variables a real
// mutator's stack frame would hold.
type console struct {
	gc  *gc.Collector
	out io.Writer
	// boxes holds one stable heap allocation per stashed slot (each a
	// *uintptr from new()), so a root registered against boxes[idx]
	// survives later appends growing the slice of box pointers itself.
	boxes []*uintptr
	// scanBuf is a fresh contiguous snapshot of the current box values,
	// rebuilt by stackRange on every call; it only needs to stay valid
	// for the duration of the collect that reads it.
	scanBuf []uintptr
	colors  bool
}

func main() {
	cfgPath := ""
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcrt-console: loading config: %v\n", err)
		os.Exit(1)
	}

	out := colorable.NewColorable(os.Stdout)
	c := &console{
		out:    out,
		colors: isatty.IsTerminal(os.Stdout.Fd()),
	}
	c.gc = gc.Init(gc.Config{
		Threshold: uintptr(cfg.ThresholdBytes),
		Allocator: heapAllocator{},
		Stack:     c.stackRange,
	})

	if err := c.run(); err != nil && err != io.EOF {
		fmt.Fprintf(os.Stderr, "gcrt-console: %v\n", err)
		os.Exit(1)
	}
}

// stackRange reports the byte extent of a fresh snapshot of the current
// slot values, so `collect` scans exactly what the user has stashed,
// mirroring how a real mutator's local variables anchor roots on the
// real stack. The snapshot is rebuilt on every call (into c.scanBuf,
// which keeps it reachable for the scan's duration) rather than reusing
// c.boxes' own storage, since the boxes themselves are scattered
// individual allocations, not one contiguous range.
func (c *console) stackRange() (low, high uintptr) {
	if len(c.boxes) == 0 {
		return 0, 0
	}
	c.scanBuf = make([]uintptr, len(c.boxes))
	for i, box := range c.boxes {
		c.scanBuf[i] = *box
	}
	low = uintptr(unsafe.Pointer(&c.scanBuf[0]))
	high = low + uintptr(len(c.scanBuf))*unsafe.Sizeof(uintptr(0))
	return low, high
}

func (c *console) run() error {
	t, err := tty.Open()
	if err != nil {
		// Fall back to line-buffered stdin (e.g. input piped from a
		// script) rather than requiring a real terminal.
		return c.runScripted(os.Stdin)
	}
	defer t.Close()
	return c.runInteractive(t)
}

func (c *console) runScripted(r io.Reader) error {
	return readLines(r, func(line string) bool {
		return c.dispatch(line)
	})
}

func (c *console) runInteractive(t *tty.TTY) error {
	fmt.Fprint(c.out, c.prompt())
	var line []rune
	for {
		r, err := t.ReadRune()
		if err != nil {
			return err
		}
		switch r {
		case '\r', '\n':
			fmt.Fprintln(c.out)
			if !c.dispatch(string(line)) {
				return nil
			}
			line = line[:0]
			fmt.Fprint(c.out, c.prompt())
		case 3: // Ctrl-C
			fmt.Fprintln(c.out)
			return nil
		case 127, 8: // backspace / DEL
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Fprint(c.out, "\b \b")
			}
		default:
			line = append(line, r)
			fmt.Fprint(c.out, string(r))
		}
	}
}

func (c *console) prompt() string {
	if c.colors {
		return "\x1b[32mgcrt>\x1b[0m "
	}
	return "gcrt> "
}

// dispatch runs one command line and reports whether the console should
// keep reading.
func (c *console) dispatch(line string) bool {
	fields, err := shlex.Split(line)
	if err != nil || len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "alloc":
		c.cmdAlloc(fields[1:])
	case "root":
		c.cmdRoot(fields[1:])
	case "collect":
		c.gc.Collect()
		fmt.Fprintln(c.out, "collected")
	case "stats":
		c.cmdStats()
	case "shutdown":
		c.gc.Shutdown()
		fmt.Fprintln(c.out, "shutdown complete")
	case "quit", "exit":
		return false
	default:
		fmt.Fprintf(c.out, "unknown command %q (try: alloc, root, collect, stats, shutdown, quit)\n", fields[0])
	}
	return true
}

func (c *console) cmdAlloc(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: alloc <size>")
		return
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(c.out, "bad size %q: %v\n", args[0], err)
		return
	}
	base := c.gc.Alloc(n)
	box := new(uintptr)
	*box = base
	c.boxes = append(c.boxes, box)
	fmt.Fprintf(c.out, "slot[%d] = %#x\n", len(c.boxes)-1, base)
}

func (c *console) cmdRoot(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: root <slot-index>")
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 0 || idx >= len(c.boxes) {
		fmt.Fprintf(c.out, "bad slot index %q\n", args[0])
		return
	}
	// Root the box itself, not &c.boxes[idx]: the slice of box pointers
	// may be reallocated by a later alloc, but each box is its own
	// separate heap allocation that never moves once created.
	c.gc.AddGlobalRoot(uintptr(unsafe.Pointer(c.boxes[idx])))
	fmt.Fprintf(c.out, "registered slot[%d] as a global root\n", idx)
}

func (c *console) cmdStats() {
	stats := c.gc.Stats()
	fmt.Fprintf(c.out, "bytes_allocated=%s threshold=%s live_blocks=%d\n",
		bytesize.New(float64(stats.BytesAllocated)),
		bytesize.New(float64(stats.Threshold)),
		stats.LiveBlocks)
}

func readLines(r io.Reader, fn func(string) bool) error {
	var buf []byte
	one := make([]byte, 1)
	for {
		n, err := r.Read(one)
		if n > 0 {
			if one[0] == '\n' {
				if !fn(string(buf)) {
					return nil
				}
				buf = buf[:0]
			} else {
				buf = append(buf, one[0])
			}
		}
		if err != nil {
			if len(buf) > 0 {
				fn(string(buf))
			}
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
