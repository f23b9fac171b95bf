package alloc

// find returns a free block of at least need bytes chosen by the current
// strategy, scanning the list from head to tail.
//
// Ties keep the first candidate: best-fit only replaces its pick on a
// strictly smaller block and worst-fit on a strictly larger one.
func (a *Allocator) find(need int) (block, bool) {
	switch a.strategy {
	case FirstFit:
		return a.firstFit(need)
	case BestFit:
		return a.bestFit(need)
	case WorstFit:
		return a.worstFit(need)
	default:
		return block{}, false
	}
}

func (a *Allocator) firstFit(need int) (block, bool) {
	for b := range a.all() {
		if b.free() && b.size() >= need {
			return b, true
		}
	}
	return block{}, false
}

func (a *Allocator) bestFit(need int) (block, bool) {
	var best block
	bestSize := 0
	for b := range a.all() {
		if !b.free() {
			continue
		}
		sz := b.size()
		if sz < need {
			continue
		}
		if !best.valid() || sz < bestSize {
			best, bestSize = b, sz
			if sz == need {
				// Nothing can beat an exact fit, and later exact fits lose the tie.
				break
			}
		}
	}
	return best, best.valid()
}

func (a *Allocator) worstFit(need int) (block, bool) {
	var worst block
	worstSize := 0
	for b := range a.all() {
		if !b.free() {
			continue
		}
		sz := b.size()
		if sz < need {
			continue
		}
		if !worst.valid() || sz > worstSize {
			worst, worstSize = b, sz
		}
	}
	return worst, worst.valid()
}
