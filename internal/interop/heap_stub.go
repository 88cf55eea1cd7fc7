//go:build !cgo
// +build !cgo

package interop

import "fmt"

// NewCHeap stub for when CGO is disabled
func NewCHeap() (Heap, error) {
	return nil, fmt.Errorf("C heap not available (build with CGO enabled)")
}
