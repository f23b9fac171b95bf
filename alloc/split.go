package alloc

import "github.com/joshuapare/mapalloc/internal/format"

// split shrinks b to need bytes and turns the rest into a free block linked
// right after it. The remainder must be able to hold a header plus
// format.MinPayload bytes; otherwise b is left whole and the caller absorbs
// the excess as internal fragmentation.
//
// b.size() must be >= need, and need must keep 8-byte granularity.
func (a *Allocator) split(b block, need int) (block, bool) {
	rem := b.size() - need
	if rem < format.MinSplitRemainder {
		return block{}, false
	}

	tail := block{r: b.r, off: b.off + need}
	tail.init(rem, b.regionID())
	b.setSize(need)
	a.insertAfter(b, tail)

	a.stats.SplitCount++
	return tail, true
}
