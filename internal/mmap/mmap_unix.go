//go:build unix

// Package mmap provides anonymous page mappings for allocator regions.
package mmap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Map returns a private, anonymous, read/write mapping of size bytes.
// size should be a multiple of PageSize.
func Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap: invalid mapping size %d", size)
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap: map %d bytes: %w", size, err)
	}
	return mem, nil
}

// Unmap releases a mapping returned by Map. It must be passed the same slice
// (not a derived slice) that Map returned. Unmapping a slice that is not a
// live mapping, including one already unmapped, fails with unix.EINVAL.
func Unmap(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("mmap: unmap %d bytes: %w", len(mem), err)
	}
	return nil
}

// PageSize returns the OS page size.
func PageSize() int {
	return unix.Getpagesize()
}
