package alloc

import (
	"fmt"

	"github.com/joshuapare/mapalloc/internal/format"
)

// Verify walks the block list and checks every structural invariant:
//
//   - list links are symmetric and head/tail are the list ends
//   - each header carries the magic and the id of the region it lives in
//   - each region's blocks are contiguous in the list, start right after the
//     prologue, tile the region without gaps and end exactly at its end
//   - every payload is 8-byte aligned
//   - no two adjacent blocks of one region are both free
//   - every mapped region appears in the list exactly once
//
// It returns the first failure as an *InvariantError.
func (a *Allocator) Verify() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.verifyLocked()
}

func (a *Allocator) verifyLocked() error {
	if a.head == 0 || a.tail == 0 {
		if a.head != a.tail {
			return &InvariantError{Kind: "List", Message: fmt.Sprintf("head %#x but tail %#x", a.head, a.tail)}
		}
		if len(a.regions) != 0 {
			return &InvariantError{Kind: "List", Message: fmt.Sprintf("empty list with %d mapped regions", len(a.regions))}
		}
		return nil
	}

	var (
		prev     block
		cur      *region
		expected int // offset the next block of cur must start at
		seen     = make(map[uint64]struct{}, len(a.regions))
	)

	closeRegion := func() error {
		if cur != nil && expected != len(cur.data) {
			return &InvariantError{
				Kind:    "Region",
				Message: fmt.Sprintf("region %d blocks cover %d of %d bytes", cur.id, expected, len(cur.data)),
				Addr:    cur.base,
			}
		}
		return nil
	}

	addr := a.head
	for addr != 0 {
		b, ok := a.resolve(addr)
		if !ok {
			return &InvariantError{Kind: "Link", Message: "address outside any region", Addr: addr}
		}
		if b.magic() != format.BlockMagic {
			return &InvariantError{Kind: "Header", Message: "bad magic", Addr: addr}
		}
		if b.regionID() != b.r.id {
			return &InvariantError{
				Kind:    "Header",
				Message: fmt.Sprintf("region id %d in region %d", b.regionID(), b.r.id),
				Addr:    addr,
			}
		}
		var wantPrev uintptr
		if prev.valid() {
			wantPrev = prev.addr()
		}
		if b.prevAddr() != wantPrev {
			return &InvariantError{
				Kind:    "Link",
				Message: fmt.Sprintf("prev is %#x, want %#x", b.prevAddr(), wantPrev),
				Addr:    addr,
			}
		}
		if (b.off+format.HeaderSize)%format.BlockAlignment != 0 {
			return &InvariantError{Kind: "Alignment", Message: "payload not 8-byte aligned", Addr: addr}
		}

		if b.r != cur {
			if err := closeRegion(); err != nil {
				return err
			}
			if _, dup := seen[b.r.id]; dup {
				return &InvariantError{
					Kind:    "Region",
					Message: fmt.Sprintf("region %d is not contiguous in the list", b.r.id),
					Addr:    addr,
				}
			}
			if !b.r.validPrologue() {
				return &InvariantError{Kind: "Region", Message: "bad region prologue", Addr: b.r.base}
			}
			seen[b.r.id] = struct{}{}
			cur = b.r
			expected = format.RegionHeaderSize
		} else if prev.free() && b.free() {
			return &InvariantError{Kind: "Coalesce", Message: "adjacent free blocks", Addr: addr}
		}

		if b.off != expected {
			return &InvariantError{
				Kind:    "Region",
				Message: fmt.Sprintf("block at offset %d, want %d", b.off, expected),
				Addr:    addr,
			}
		}
		size := b.size()
		if size < format.HeaderSize || b.off+size > len(b.r.data) {
			return &InvariantError{Kind: "Header", Message: fmt.Sprintf("size %d out of range", size), Addr: addr}
		}
		expected += size

		prev = b
		addr = b.nextAddr()
	}

	if err := closeRegion(); err != nil {
		return err
	}
	if prev.addr() != a.tail {
		return &InvariantError{Kind: "List", Message: fmt.Sprintf("tail is %#x, last block %#x", a.tail, prev.addr())}
	}
	if len(seen) != len(a.regions) {
		return &InvariantError{
			Kind:    "Region",
			Message: fmt.Sprintf("%d regions in list, %d mapped", len(seen), len(a.regions)),
		}
	}
	return nil
}
