package alloc

import "iter"

// The global block list is intrusive: next/prev addresses live in the block
// headers and a.head/a.tail hold the ends. Order is acquisition order:
// regions in creation order, blocks by address within a region.

func (a *Allocator) headBlock() (block, bool) { return a.resolve(a.head) }

func (a *Allocator) nextOf(b block) (block, bool) { return a.resolve(b.nextAddr()) }

func (a *Allocator) prevOf(b block) (block, bool) { return a.resolve(b.prevAddr()) }

// all iterates the list from head to tail. Iteration stops early at a link
// that does not resolve; Verify reports that case.
func (a *Allocator) all() iter.Seq[block] {
	return func(yield func(block) bool) {
		for b, ok := a.headBlock(); ok; b, ok = a.nextOf(b) {
			if !yield(b) {
				return
			}
		}
	}
}

// appendTail links b as the new tail.
func (a *Allocator) appendTail(b block) {
	b.setNext(0)
	b.setPrev(a.tail)
	if t, ok := a.resolve(a.tail); ok {
		t.setNext(b.addr())
	} else {
		a.head = b.addr()
	}
	a.tail = b.addr()
}

// insertAfter links nb directly after b.
func (a *Allocator) insertAfter(b, nb block) {
	next := b.nextAddr()
	nb.setPrev(b.addr())
	nb.setNext(next)
	if n, ok := a.resolve(next); ok {
		n.setPrev(nb.addr())
	} else {
		a.tail = nb.addr()
	}
	b.setNext(nb.addr())
}

// unlink removes b from the list. b's own links are left as they were so
// the caller can put it back with relink.
func (a *Allocator) unlink(b block) {
	a.join(b.prevAddr(), b.nextAddr())
}

// join links prev to next directly, fixing head/tail when either is 0.
func (a *Allocator) join(prev, next uintptr) {
	if p, ok := a.resolve(prev); ok {
		p.setNext(next)
	} else {
		a.head = next
	}
	if n, ok := a.resolve(next); ok {
		n.setPrev(prev)
	} else {
		a.tail = prev
	}
}

// relink puts b back between prev and next after an unlink.
func (a *Allocator) relink(b block, prev, next uintptr) {
	b.setPrev(prev)
	b.setNext(next)
	a.join(prev, b.addr())
	a.join(b.addr(), next)
}
