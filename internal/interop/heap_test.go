package interop

import (
	"sync"
	"unsafe"
)

const poison = 0xDB

// trackingHeap backs allocations with Go memory it keeps referenced, so
// freed blocks stay readable and can be checked for poisoning.
type trackingHeap struct {
	mu    sync.Mutex
	live  map[unsafe.Pointer][]uint64
	freed map[unsafe.Pointer][]uint64

	allocs       int
	doubleFrees  int
	foreignFrees int
}

func newTrackingHeap() *trackingHeap {
	return &trackingHeap{
		live:  make(map[unsafe.Pointer][]uint64),
		freed: make(map[unsafe.Pointer][]uint64),
	}
}

func (h *trackingHeap) Alloc(size uintptr) unsafe.Pointer {
	h.mu.Lock()
	defer h.mu.Unlock()

	words := (size + 7) / 8
	if words == 0 {
		words = 1
	}
	block := make([]uint64, words)
	p := unsafe.Pointer(&block[0])
	h.live[p] = block
	h.allocs++
	return p
}

func (h *trackingHeap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	block, ok := h.live[p]
	if !ok {
		if _, wasFreed := h.freed[p]; wasFreed {
			h.doubleFrees++
		} else {
			h.foreignFrees++
		}
		return
	}

	bytes := unsafe.Slice((*byte)(p), len(block)*8)
	for i := range bytes {
		bytes[i] = poison
	}
	delete(h.live, p)
	h.freed[p] = block
}

// liveCount is the number of blocks not yet freed.
func (h *trackingHeap) liveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// poisoned reports whether every byte of a freed block holds the poison
// value.
func (h *trackingHeap) poisoned(p unsafe.Pointer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	block, ok := h.freed[p]
	if !ok {
		return false
	}
	for _, b := range unsafe.Slice((*byte)(p), len(block)*8) {
		if b != poison {
			return false
		}
	}
	return true
}
