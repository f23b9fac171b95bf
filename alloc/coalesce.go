package alloc

import "github.com/joshuapare/mapalloc/internal/format"

// coalesce merges the free block b with free neighbours of the same region,
// right first and then left, and returns the block that now covers the
// merged extent. Merges never cross a region boundary.
func (a *Allocator) coalesce(b block) block {
	id := b.regionID()

	if n, ok := a.nextOf(b); ok && n.free() && n.regionID() == id {
		a.stats.CoalesceForward++
		b.setSize(b.size() + n.size())
		a.unlink(n)
		n.retire()
	}

	if p, ok := a.prevOf(b); ok && p.free() && p.regionID() == id {
		a.stats.CoalesceBackward++
		p.setSize(p.size() + b.size())
		a.unlink(b)
		b.retire()
		return p
	}

	return b
}

// spansRegion reports whether b covers its whole region, i.e. it has no
// neighbour with the same region id on either side.
func (b block) spansRegion() bool {
	return b.off == format.RegionHeaderSize && b.off+b.size() == len(b.r.data)
}
