package main

/*
#include <stdint.h>
#include <string.h>
*/
import "C"

import (
	"strconv"
	"unicode/utf8"
	"unsafe"
)

// --- print_* (spec.md §4.8/§6) ---------------------------------------

//export print_int
func print_int(val C.int64_t) {
	consoleWrite(strconv.FormatInt(int64(val), 10))
}

//export print_float
func print_float(val C.double) {
	consoleWrite(strconv.FormatFloat(float64(val), 'g', -1, 64))
}

//export print_bool
func print_bool(val C.int8_t) {
	if val != 0 {
		consoleWrite("true")
	} else {
		consoleWrite("false")
	}
}

//export print_string
func print_string(ptr *C.char) {
	consoleWrite(goStringOrNull(ptr))
}

//export print_newline
func print_newline() {
	consoleWrite("\n")
}

// goStringOrNull mirrors sydney_rt's print.rs: a C string containing any
// invalid UTF-8 is reported as a single fixed placeholder rather than a
// partially-repaired copy, so output is unambiguous about the whole value
// being untrustworthy rather than implying only a few bytes were bad.
func goStringOrNull(ptr *C.char) string {
	if ptr == nil {
		return "null"
	}
	s := C.GoString(ptr)
	if !utf8.ValidString(s) {
		return "<invalid utf8>"
	}
	return s
}

// --- string helpers (spec.md §4.8/§6) --------------------------------

//export strlen
func strlen(ptr *C.char) C.int64_t {
	if ptr == nil {
		return 0
	}
	return C.int64_t(C.strlen(ptr))
}

// strcat concatenates a and b (null treated as empty) and returns a
// freshly allocated, NUL-terminated result. Per the resolution recorded
// in DESIGN.md/SPEC_FULL.md §9, the buffer is allocated through the same
// collector used by gc_alloc, so it is a normal, collectable heap block
// rather than a permanently untracked C.malloc leak.
//
//export strcat
func strcat(a, b *C.char) *C.char {
	sa := goStringOrEmpty(a)
	sb := goStringOrEmpty(b)

	n := int64(len(sa) + len(sb) + 1) // +1 for the trailing NUL
	base := requireInit().Alloc(n)
	if base == 0 {
		fatalf("strcat: gc_alloc failed for %d bytes", n)
	}

	dst := unsafe.Slice((*byte)(unsafe.Pointer(base)), n)
	copy(dst, sa)
	copy(dst[len(sa):], sb)
	dst[len(sa)+len(sb)] = 0

	return (*C.char)(unsafe.Pointer(base))
}

func goStringOrEmpty(ptr *C.char) string {
	if ptr == nil {
		return ""
	}
	return C.GoString(ptr)
}

// --- integer map (spec.md §4.8/§6, SPEC_FULL.md §11.1) ---------------

// The integer map's storage is intentionally not GC-managed: its words are plain
// int64 keys/values, never pointers, so the conservative scanner must
// never treat its backing storage as scannable heap (DESIGN.md "Map
// destroy" rationale). Handles are opaque integers indexing into
// liveMaps rather than raw pointers, so a stray heap word that happens
// to equal a handle can never be misinterpreted as a pointer into this
// storage by the conservative scanner.
var (
	liveMaps  = map[int64]map[int64]int64{}
	nextMapID int64
)

//export map_create
func map_create() C.int64_t {
	nextMapID++
	id := nextMapID
	liveMaps[id] = make(map[int64]int64)
	return C.int64_t(id)
}

//export map_set
func map_set(handle C.int64_t, key, value C.int64_t) {
	m, ok := liveMaps[int64(handle)]
	if !ok {
		fatalf("map_set: unknown map handle %d", int64(handle))
	}
	m[int64(key)] = int64(value)
}

//export map_get
func map_get(handle C.int64_t, key C.int64_t) C.int64_t {
	m, ok := liveMaps[int64(handle)]
	if !ok {
		fatalf("map_get: unknown map handle %d", int64(handle))
	}
	return C.int64_t(m[int64(key)]) // missing keys yield the zero value
}

//export map_destroy
func map_destroy(handle C.int64_t) {
	delete(liveMaps, int64(handle))
}
