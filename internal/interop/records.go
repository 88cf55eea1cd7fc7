// Package interop flattens session data into fixed-layout records that a
// foreign caller can read, and frees them again when the caller hands them
// back. Every record is allocated from a Heap; the caller owns it until it
// passes it to the matching Free function.
package interop

import (
	"unsafe"
)

// Heap is the allocator records are placed in. Memory returned by Alloc
// must not be moved or collected until Free.
type Heap interface {
	Alloc(size uintptr) unsafe.Pointer
	Free(p unsafe.Pointer)
}

// MonitorInfo mirrors the C MonitorInfo struct. Each field is a
// NUL-terminated string or nil when the value is absent.
type MonitorInfo struct {
	ID             unsafe.Pointer
	ModelName      unsafe.Pointer
	ManufacturerID unsafe.Pointer
}

// MonitorList mirrors the C MonitorList struct.
type MonitorList struct {
	Monitors unsafe.Pointer
	Count    uintptr
}

// InputList mirrors the C InputSourceList struct. Elements are uint16
// input codes.
type InputList struct {
	Inputs unsafe.Pointer
	Count  uintptr
}

// FavoriteInfo mirrors the C FavoriteInfo struct.
type FavoriteInfo struct {
	MonitorID  unsafe.Pointer
	InputValue uint16
}

// FavoriteList mirrors the C FavoriteList struct.
type FavoriteList struct {
	Favorites unsafe.Pointer
	Count     uintptr
}

// Items returns the records of the list as a slice over heap memory.
func (l MonitorList) Items() []MonitorInfo {
	if l.Monitors == nil || l.Count == 0 {
		return nil
	}
	return unsafe.Slice((*MonitorInfo)(l.Monitors), l.Count)
}

func (l InputList) Items() []uint16 {
	if l.Inputs == nil || l.Count == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(l.Inputs), l.Count)
}

func (l FavoriteList) Items() []FavoriteInfo {
	if l.Favorites == nil || l.Count == 0 {
		return nil
	}
	return unsafe.Slice((*FavoriteInfo)(l.Favorites), l.Count)
}

// CString copies s into heap memory with a trailing NUL. Bytes after an
// embedded NUL are unreachable to a C reader.
func CString(h Heap, s string) unsafe.Pointer {
	p := h.Alloc(uintptr(len(s) + 1))
	buf := unsafe.Slice((*byte)(p), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return p
}

// GoString reads a NUL-terminated string. A nil pointer yields "".
func GoString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

func optionalCString(h Heap, s string, ok bool) unsafe.Pointer {
	if !ok {
		return nil
	}
	return CString(h, s)
}

func freeString(h Heap, p unsafe.Pointer) {
	if p != nil {
		h.Free(p)
	}
}
