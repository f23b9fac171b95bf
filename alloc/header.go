package alloc

import (
	"github.com/joshuapare/mapalloc/internal/format"
)

// block is a handle on one block header: the region it lives in and the
// header's offset within that region's mapping. The zero value is no block.
type block struct {
	r   *region
	off int
}

func (b block) valid() bool { return b.r != nil }

func (b block) addr() uintptr { return b.r.base + uintptr(b.off) }

func (b block) size() int {
	return int(format.ReadU64(b.r.data, b.off+format.SizeOffset))
}

func (b block) setSize(n int) {
	format.PutU64(b.r.data, b.off+format.SizeOffset, uint64(n))
}

func (b block) free() bool { return b.r.data[b.off+format.FreeOffset] != 0 }

func (b block) setFree(free bool) {
	var v byte
	if free {
		v = 1
	}
	b.r.data[b.off+format.FreeOffset] = v
}

func (b block) regionID() uint64 {
	return format.ReadU64(b.r.data, b.off+format.RegionIDOffset)
}

func (b block) nextAddr() uintptr {
	return uintptr(format.ReadU64(b.r.data, b.off+format.NextOffset))
}

func (b block) setNext(addr uintptr) {
	format.PutU64(b.r.data, b.off+format.NextOffset, uint64(addr))
}

func (b block) prevAddr() uintptr {
	return uintptr(format.ReadU64(b.r.data, b.off+format.PrevOffset))
}

func (b block) setPrev(addr uintptr) {
	format.PutU64(b.r.data, b.off+format.PrevOffset, uint64(addr))
}

func (b block) name() string { return format.ReadName(b.r.data, b.off+format.NameOffset) }

func (b block) setName(name string) { format.PutName(b.r.data, b.off+format.NameOffset, name) }

func (b block) magic() uint32 { return format.ReadU32(b.r.data, b.off+format.MagicOffset) }

// retire clears the magic of a header that has been absorbed by a merge, so a
// stale pointer to it is rejected instead of freeing the middle of a block.
func (b block) retire() { format.PutU32(b.r.data, b.off+format.MagicOffset, 0) }

// init writes a fresh free header spanning size bytes.
func (b block) init(size int, regionID uint64) {
	h := b.r.data[b.off : b.off+format.HeaderSize]
	clear(h)
	format.PutU64(h, format.SizeOffset, uint64(size))
	h[format.FreeOffset] = 1
	format.PutU64(h, format.RegionIDOffset, regionID)
	format.PutU32(h, format.MagicOffset, format.BlockMagic)
}

// payload returns the usable bytes after the header. The capacity is capped
// at the block end so appends cannot run into the next header.
func (b block) payload() []byte {
	lo := b.off + format.HeaderSize
	hi := b.off + b.size()
	return b.r.data[lo:hi:hi]
}

func (b block) usable() int { return b.size() - format.HeaderSize }

func (b block) info() BlockInfo {
	size := b.size()
	return BlockInfo{
		RegionID: b.regionID(),
		Start:    b.addr(),
		End:      b.addr() + uintptr(size),
		Name:     b.name(),
		Size:     size,
		Free:     b.free(),
	}
}
