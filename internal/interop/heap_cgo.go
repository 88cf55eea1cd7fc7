//go:build cgo
// +build cgo

package interop

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"
)

// cHeap allocates with the C allocator so foreign code may keep pointers
// across calls.
type cHeap struct{}

// NewCHeap returns the heap shared with C callers.
func NewCHeap() (Heap, error) {
	return cHeap{}, nil
}

func (cHeap) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	p := C.malloc(C.size_t(size))
	if p == nil {
		panic("interop: out of memory")
	}
	return p
}

func (cHeap) Free(p unsafe.Pointer) {
	C.free(p)
}
