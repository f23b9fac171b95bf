package alloc

import (
	"bufio"
	"fmt"
	"io"
)

// dumpTitle opens every memory map.
const dumpTitle = "-- Current Memory State --"

// Dump writes the memory map to w: one line per region, the first time the
// region is met in list order, and one line per block in list order.
//
//	-- Current Memory State --
//	[REGION 1] 0x7f2a4c000000
//	  [BLOCK] 0x7f2a4c00000c-0x7f2a4c0000b4 'Allocation 0' 168 [USED]
//	  [BLOCK] 0x7f2a4c0000b4-0x7f2a4c001000 '' 3916 [FREE]
func (a *Allocator) Dump(w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, dumpTitle)

	seen := make(map[uint64]struct{}, len(a.regions))
	for b := range a.all() {
		id := b.regionID()
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			fmt.Fprintf(bw, "[REGION %d] %#x\n", id, b.r.base)
		}
		size := b.size()
		fmt.Fprintf(bw, "  [BLOCK] %#x-%#x '%s' %d [%s]\n",
			b.addr(),
			b.addr()+uintptr(size),
			b.name(),
			size,
			status(b.free()),
		)
	}
	return bw.Flush()
}

func status(free bool) string {
	if free {
		return "FREE"
	}
	return "USED"
}

// Blocks returns a snapshot of every block in list order.
func (a *Allocator) Blocks() []BlockInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []BlockInfo
	for b := range a.all() {
		out = append(out, b.info())
	}
	return out
}

// Stats returns a copy of the allocator counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Regions returns the number of regions currently mapped.
func (a *Allocator) Regions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.regions)
}

// RegionCount returns the id of the most recently mapped region. Ids are
// never reused, so it only grows.
func (a *Allocator) RegionCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.regionSeq
}

// AllocationCount returns the number of successful allocations so far.
func (a *Allocator) AllocationCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocations
}
