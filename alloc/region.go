package alloc

import (
	"bytes"
	"fmt"
	"math"
	"unsafe"

	"github.com/joshuapare/mapalloc/internal/format"
	"github.com/joshuapare/mapalloc/internal/mmap"
)

// Mapper supplies page-granular memory for regions.
type Mapper interface {
	// Map returns size bytes of zeroed read/write memory. size is a
	// multiple of PageSize.
	Map(size int) ([]byte, error)

	// Unmap releases memory previously returned by Map.
	Unmap(mem []byte) error

	// PageSize returns the mapping granularity; it must be a power of two.
	PageSize() int
}

// osMapper maps anonymous private memory from the OS.
type osMapper struct{}

func (osMapper) Map(size int) ([]byte, error) { return mmap.Map(size) }
func (osMapper) Unmap(mem []byte) error       { return mmap.Unmap(mem) }
func (osMapper) PageSize() int                { return mmap.PageSize() }

// region is one mapping. data is exactly the slice the Mapper returned.
type region struct {
	id   uint64
	data []byte
	base uintptr
}

func (r *region) end() uintptr { return r.base + uintptr(len(r.data)) }

// first returns the block at the start of the region.
func (r *region) first() block { return block{r: r, off: format.RegionHeaderSize} }

// acquireRegion maps a region able to hold a block of need bytes, installs a
// single free block spanning it, and appends that block to the list tail.
func (a *Allocator) acquireRegion(need int) (block, error) {
	if need > math.MaxInt-format.RegionHeaderSize-a.pageSize {
		return block{}, fmt.Errorf("%w: %d bytes", ErrInvalidSize, need)
	}
	size := format.AlignPage(format.RegionHeaderSize+need, a.pageSize)

	mem, err := a.mapper.Map(size)
	if err != nil {
		a.stats.MapFailures++
		a.log.Warn("region map failed", "bytes", size, "err", err)
		return block{}, fmt.Errorf("%w: %w", ErrMapFailed, err)
	}
	if len(mem) != size {
		// A mapper that hands back a different span would break the
		// region-size invariant; give it back and fail the request.
		_ = a.mapper.Unmap(mem)
		a.stats.MapFailures++
		return block{}, fmt.Errorf("%w: mapper returned %d bytes, want %d", ErrMapFailed, len(mem), size)
	}

	a.regionSeq++
	r := &region{
		id:   a.regionSeq,
		data: mem,
		base: uintptr(unsafe.Pointer(unsafe.SliceData(mem))),
	}
	copy(r.data, format.RegionSignature)
	format.PutU64(r.data, format.RegionIDFieldOffset, r.id)

	a.insertRegion(r)

	b := r.first()
	b.init(size-format.RegionHeaderSize, r.id)
	a.appendTail(b)

	a.stats.RegionsMapped++
	a.stats.BytesMapped += int64(size)
	a.stats.PeakBytesMapped = max(a.stats.PeakBytesMapped, a.stats.BytesMapped)
	a.log.Debug("region mapped", "region", r.id, "base", fmt.Sprintf("%#x", r.base), "bytes", size)

	return b, nil
}

// releaseRegion unlinks the sole, free block of a region and unmaps the
// region. If the OS refuses the unmap, the block is linked back in place and
// stays available as free space.
func (a *Allocator) releaseRegion(b block) error {
	r := b.r
	prev, next := b.prevAddr(), b.nextAddr()
	a.unlink(b)

	// Scrub the prologue and header first; a mapper that does not really
	// unmap (heap fallback) must not leave a header a stale pointer can hit.
	b.retire()
	clear(r.data[:format.RegionSignatureLen])

	if err := a.mapper.Unmap(r.data); err != nil {
		copy(r.data, format.RegionSignature)
		format.PutU32(r.data, b.off+format.MagicOffset, format.BlockMagic)
		a.relink(b, prev, next)
		a.log.Warn("region unmap failed", "region", r.id, "err", err)
		return fmt.Errorf("alloc: unmap region %d: %w", r.id, err)
	}

	a.removeRegion(r)
	a.stats.RegionsUnmapped++
	a.stats.BytesMapped -= int64(len(r.data))
	a.log.Debug("region unmapped", "region", r.id, "bytes", len(r.data))
	return nil
}

// insertRegion adds r to the address-ordered region index.
func (a *Allocator) insertRegion(r *region) {
	i := a.regionIndex(r.base)
	a.regions = append(a.regions, nil)
	copy(a.regions[i+1:], a.regions[i:])
	a.regions[i] = r
}

// removeRegion drops r from the region index.
func (a *Allocator) removeRegion(r *region) {
	i := a.regionIndex(r.base)
	if i < len(a.regions) && a.regions[i] == r {
		a.regions = append(a.regions[:i], a.regions[i+1:]...)
	}
}

// regionIndex returns the position of the first region whose base is >= addr.
func (a *Allocator) regionIndex(addr uintptr) int {
	lo, hi := 0, len(a.regions)
	for lo < hi {
		mid := (lo + hi) >> 1
		if a.regions[mid].base < addr {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// regionFor finds the region containing addr.
// O(log R) operation via binary search on the region index.
func (a *Allocator) regionFor(addr uintptr) *region {
	lo, hi := 0, len(a.regions)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		r := a.regions[mid]

		if addr < r.base {
			hi = mid - 1
		} else if addr >= r.end() {
			lo = mid + 1
		} else {
			return r
		}
	}
	return nil
}

// resolve turns a header address into a block handle. It only checks that
// the address falls inside a region with room for a header.
func (a *Allocator) resolve(addr uintptr) (block, bool) {
	if addr == 0 {
		return block{}, false
	}
	r := a.regionFor(addr)
	if r == nil {
		return block{}, false
	}
	off := int(addr - r.base)
	if off < format.RegionHeaderSize || off+format.HeaderSize > len(r.data) {
		return block{}, false
	}
	return block{r: r, off: off}, true
}

// validPrologue reports whether the region still carries its signature and id.
func (r *region) validPrologue() bool {
	if len(r.data) < format.RegionHeaderSize {
		return false
	}
	return bytes.Equal(r.data[:format.RegionSignatureLen], format.RegionSignature) &&
		format.ReadU64(r.data, format.RegionIDFieldOffset) == r.id
}
