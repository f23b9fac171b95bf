//go:build !unix

// Package mmap provides anonymous page mappings for allocator regions.
package mmap

import (
	"fmt"
	"os"
)

// Map allocates a zeroed heap buffer when anonymous mappings are not available.
func Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap: invalid mapping size %d", size)
	}
	return make([]byte, size), nil
}

// Unmap is a no-op; the buffer is reclaimed by the garbage collector once the
// caller drops it.
func Unmap(mem []byte) error {
	return nil
}

// PageSize returns the OS page size.
func PageSize() int {
	return os.Getpagesize()
}
