// Package alloc provides a page-backed dynamic memory allocator with
// malloc/calloc/realloc/free semantics over anonymous OS mappings.
//
// # Overview
//
// Memory is obtained from the OS in page-aligned regions. Every region is
// carved into blocks, and every block starts with a fixed 100-byte header
// recording its name, size, liveness and owning region. All blocks of all
// regions form a single doubly linked list in acquisition order, which the
// fit strategies scan from head to tail.
//
// # Allocator Interface
//
//   - Alloc(size): Allocate size bytes, named "Allocation N"
//   - AllocNamed(size, name): Allocate with a caller-chosen name
//   - Calloc(count, size): Allocate count*size zeroed bytes
//   - Realloc(buf, size): Resize, moving the data when the block is too small
//   - Free(buf): Release a block, coalescing and unmapping empty regions
//   - Dump(w): Write the memory map
//
// A payload is handed out as a []byte: len is the requested size, cap is the
// usable size of the block. The address of the first element identifies the
// block, so Free and Realloc must be given a slice that starts where the
// returned one did. A nil slice is the null pointer.
//
// # Fit Strategies
//
//   - FirstFit: first free block large enough, in list order (default)
//   - BestFit: smallest free block large enough; first one found on ties
//   - WorstFit: largest free block large enough; first one found on ties
//
// # Block Layout
//
// Block sizes include the header. Each mapping begins with a 12-byte region
// prologue, so block starts sit at 4 mod 8 and payloads (start + 100) are
// 8-byte aligned with capacities that are multiples of 8. The last block of a
// region runs to the page boundary, so its size is 4 mod 8:
//
//	region: [prologue 12][block][block]...[block]
//	block:  [header 100][payload ...]
//
// A free block is split when the remainder can hold a header plus at least 8
// payload bytes; otherwise the whole block is handed out. Freed blocks merge
// with free neighbours of the same region, and a region whose only block is
// free is unmapped.
//
// # Usage Example
//
//	a := alloc.New(alloc.Config{Strategy: alloc.BestFit})
//
//	buf, err := a.AllocNamed(256, "frame")
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	buf, err = a.Realloc(buf, 4096)
//	if err != nil {
//	    return err
//	}
//
//	err = a.Free(buf)
//
// The package-level functions (Malloc, Calloc, Realloc, Free, DumpMemory)
// use a process-wide allocator configured from ALLOCATOR_ALGORITHM and
// ALLOCATOR_SCRIBBLE on first use.
//
// # Thread Safety
//
// All operations on an Allocator are serialized by a single mutex held for
// the whole call, including any mapping or unmapping it performs.
//
// Slices returned by an Allocator point into memory the Go runtime does not
// manage. They must not be used after Free, and must not be retained past
// the point where their region may be unmapped.
package alloc
