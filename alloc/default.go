package alloc

import (
	"io"
	"sync"

	"github.com/joshuapare/mapalloc/internal/logger"
)

var (
	defaultOnce  sync.Once
	defaultAlloc *Allocator
)

// Default returns the process-wide allocator, creating it on first use from
// ALLOCATOR_ALGORITHM, ALLOCATOR_SCRIBBLE and ALLOCATOR_LOG. The environment
// is read once; later changes have no effect.
func Default() *Allocator {
	defaultOnce.Do(func() {
		logger.Init(logger.FromEnv())
		defaultAlloc = New(ConfigFromEnv())
	})
	return defaultAlloc
}

// Malloc allocates size bytes from the default allocator.
func Malloc(size int) ([]byte, error) { return Default().Alloc(size) }

// MallocNamed allocates size bytes named name from the default allocator.
func MallocNamed(size int, name string) ([]byte, error) { return Default().AllocNamed(size, name) }

// Calloc allocates count*size zeroed bytes from the default allocator.
func Calloc(count, size int) ([]byte, error) { return Default().Calloc(count, size) }

// Realloc resizes buf within the default allocator.
func Realloc(buf []byte, size int) ([]byte, error) { return Default().Realloc(buf, size) }

// Free releases buf to the default allocator.
func Free(buf []byte) error { return Default().Free(buf) }

// DumpMemory writes the default allocator's memory map to w.
func DumpMemory(w io.Writer) error { return Default().Dump(w) }
