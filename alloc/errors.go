package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize indicates a zero, negative or unrepresentable request size.
	ErrInvalidSize = errors.New("alloc: invalid allocation size")

	// ErrOverflow indicates count*size overflowed in Calloc.
	ErrOverflow = errors.New("alloc: allocation size overflows")

	// ErrMapFailed indicates the OS refused to map a new region.
	ErrMapFailed = errors.New("alloc: region mapping failed")

	// ErrUnknownStrategy indicates the configured fit strategy is not recognised.
	ErrUnknownStrategy = errors.New("alloc: unknown fit strategy")

	// ErrBadPointer indicates a buffer that was not returned by this allocator.
	ErrBadPointer = errors.New("alloc: pointer not owned by allocator")

	// ErrDoubleFree indicates an attempt to free a block that is already free.
	ErrDoubleFree = errors.New("alloc: block already free")

	// ErrCorrupt indicates the block list failed a structural check.
	ErrCorrupt = errors.New("alloc: corrupt block list")
)

// InvariantError describes a structural check that failed in Verify.
type InvariantError struct {
	Kind    string
	Message string
	Addr    uintptr
}

func (e *InvariantError) Error() string {
	if e.Addr != 0 {
		return fmt.Sprintf("%s at %#x: %s", e.Kind, e.Addr, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets callers match any invariant failure with errors.Is(err, ErrCorrupt).
func (e *InvariantError) Unwrap() error { return ErrCorrupt }
