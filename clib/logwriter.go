package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/minilang/gcrt/internal/gc"
)

// consoleWriter is stdout wrapped through go-colorable, so ANSI color
// codes degrade gracefully on Windows consoles and plain files alike --
// the same reasoning the teacher applies to its own CLI output (go.mod's
// github.com/mattn/go-colorable dependency), repurposed here for the
// runtime's diagnostic stream instead of a build-tool's terminal output.
var consoleWriter = colorable.NewColorable(os.Stdout)

// consoleWrite is the single choke point for print_string/print_int/etc:
// mutator output and collector diagnostics share one writer so their
// relative ordering on a terminal matches wall-clock order.
func consoleWrite(s string) {
	fmt.Fprint(consoleWriter, s)
}

// consoleLogger implements gc.Logger by writing colorized, human-scaled
// trace lines, bridging the collector core's abstract Logger interface
// (internal/gc/logger.go) to the concrete CLI libraries named in
// SPEC_FULL.md §10.
type consoleLogger struct {
	debug   bool
	colored bool
}

func newConsoleLogger(debug bool) *consoleLogger {
	return &consoleLogger{
		debug:   debug,
		colored: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
}

func (l *consoleLogger) Tracef(format string, args ...any) {
	if !l.debug {
		return
	}
	l.emit("\x1b[36mgc\x1b[0m", format, args...)
}

func (l *consoleLogger) Fatalf(format string, args ...any) {
	l.emit("\x1b[31mgc fatal\x1b[0m", format, args...)
	os.Exit(1)
}

func (l *consoleLogger) emit(tag, format string, args ...any) {
	prefix := stripColor(tag, l.colored)
	fmt.Fprintf(consoleWriter, "%s: %s\n", prefix, fmt.Sprintf(format, args...))
}

func stripColor(tag string, colored bool) string {
	if colored {
		return tag
	}
	// Strip the ANSI escapes we hardcoded above when not writing to a
	// real terminal, rather than pulling in a full ANSI-stripping
	// dependency for two fixed tag strings.
	switch tag {
	case "\x1b[36mgc\x1b[0m":
		return "gc"
	case "\x1b[31mgc fatal\x1b[0m":
		return "gc fatal"
	default:
		return tag
	}
}

var _ gc.Logger = (*consoleLogger)(nil)
