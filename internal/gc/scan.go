package gc

import "unsafe"

const wordSize = unsafe.Sizeof(uintptr(0))

// scanWords reads every 8-byte-aligned word in [low, high) and invokes fn
// with each one interpreted as a candidate heap base. low and high need
// not be word-aligned themselves: scanning starts at the next aligned
// word at or above low and stops once a full word no longer fits before
// high, matching spec.md §4.3/§4.4 ("scanning proceeds in 8-byte
// strides"). Direction of stack growth is irrelevant here: the caller is
// responsible for normalizing low = min(...), high = max(...) first.
func scanWords(low, high uintptr, fn func(word uintptr)) {
	start := alignUp(low, wordSize)
	for addr := start; addr+wordSize <= high; addr += wordSize {
		fn(*(*uintptr)(unsafe.Pointer(addr)))
	}
}

func alignUp(addr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}

func alignDown(size, align uintptr) uintptr {
	return size &^ (align - 1)
}
