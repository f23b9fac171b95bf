package alloc

import (
	"fmt"
	"log/slog"
	"math"
	"math/bits"
	"strconv"
	"sync"
	"unsafe"

	"github.com/joshuapare/mapalloc/internal/format"
	"github.com/joshuapare/mapalloc/internal/logger"
)

// defaultPageSize is used when a Mapper reports a nonsensical page size.
const defaultPageSize = 4096

// maxRequest bounds a single request so header and page rounding cannot
// overflow int.
const maxRequest = math.MaxInt >> 2

// namePrefix precedes the allocation counter in default block names.
const namePrefix = "Allocation "

// Allocator manages page-backed regions and the global block list.
// All exported methods are safe for concurrent use.
type Allocator struct {
	mu sync.Mutex

	strategy Strategy
	scribble bool
	mapper   Mapper
	log      *slog.Logger
	pageSize int

	// Global block list ends (header addresses, 0 = empty).
	head uintptr
	tail uintptr

	// Live regions ordered by base address, for payload -> region lookup.
	regions []*region

	allocations uint64 // Monotonic allocation counter, used for default names
	regionSeq   uint64 // Last region id handed out

	stats Stats
}

// New creates an allocator. No memory is mapped until the first allocation.
func New(cfg Config) *Allocator {
	mapper := cfg.Mapper
	if mapper == nil {
		mapper = osMapper{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.L
	}
	ps := mapper.PageSize()
	if ps <= 0 || ps&(ps-1) != 0 {
		ps = defaultPageSize
	}
	return &Allocator{
		strategy: cfg.Strategy,
		scribble: cfg.Scribble,
		mapper:   mapper,
		log:      log,
		pageSize: ps,
	}
}

// Alloc allocates size bytes named "Allocation N".
func (a *Allocator) Alloc(size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, err := a.allocLocked(size, "", false)
	if err != nil {
		return nil, err
	}
	a.scribbleLocked(b)
	return b.payload()[:size], nil
}

// AllocNamed allocates size bytes and names the block. Names longer than 31
// bytes are truncated.
func (a *Allocator) AllocNamed(size int, name string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, err := a.allocLocked(size, name, true)
	if err != nil {
		return nil, err
	}
	a.scribbleLocked(b)
	return b.payload()[:size], nil
}

// Calloc allocates count*size bytes with every payload byte zeroed.
// Overflow of count*size fails with ErrOverflow.
func (a *Allocator) Calloc(count, size int) ([]byte, error) {
	if count < 0 || size < 0 {
		return nil, fmt.Errorf("%w: calloc(%d, %d)", ErrInvalidSize, count, size)
	}
	hi, total := bits.Mul64(uint64(count), uint64(size))
	if hi != 0 || total > maxRequest {
		return nil, fmt.Errorf("%w: calloc(%d, %d)", ErrOverflow, count, size)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.CallocCalls++
	b, err := a.allocLocked(int(total), "", false)
	if err != nil {
		return nil, err
	}
	clear(b.payload())
	return b.payload()[:total], nil
}

// Realloc resizes buf to size bytes.
//
//   - A nil buf behaves as Alloc(size).
//   - size == 0 frees buf and returns nil.
//   - If the block already has at least size usable bytes, the same block is
//     returned resliced to size.
//   - Otherwise a new block is allocated, the old usable bytes are copied
//     into it, and the old block is freed. If the new allocation fails, buf
//     is left untouched.
func (a *Allocator) Realloc(buf []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.ReallocCalls++
	if cap(buf) == 0 {
		b, err := a.allocLocked(size, "", false)
		if err != nil {
			return nil, err
		}
		a.scribbleLocked(b)
		return b.payload()[:size], nil
	}

	old, err := a.blockOf(buf)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		a.freeLocked(old)
		return nil, nil
	}
	if old.usable() >= size {
		a.stats.ReallocInPlace++
		return old.payload()[:size], nil
	}

	nb, err := a.allocLocked(size, "", false)
	if err != nil {
		return nil, err
	}
	a.scribbleLocked(nb)
	copy(nb.payload(), old.payload())
	a.freeLocked(old)
	return nb.payload()[:size], nil
}

// Free releases buf. A nil buf is a no-op. Freeing a buffer this allocator
// did not return fails with ErrBadPointer; freeing twice fails with
// ErrDoubleFree. Neither modifies any state.
func (a *Allocator) Free(buf []byte) error {
	if cap(buf) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b, err := a.blockOf(buf)
	if err != nil {
		return err
	}
	a.freeLocked(b)
	return nil
}

// UsableSize returns the payload capacity of the block behind buf.
func (a *Allocator) UsableSize(buf []byte) (int, error) {
	if cap(buf) == 0 {
		return 0, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b, err := a.blockOf(buf)
	if err != nil {
		return 0, err
	}
	return b.usable(), nil
}

// SetStrategy changes the fit strategy for subsequent allocations.
func (a *Allocator) SetStrategy(s Strategy) {
	a.mu.Lock()
	a.strategy = s
	a.mu.Unlock()
}

// Strategy returns the current fit strategy.
func (a *Allocator) Strategy() Strategy {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.strategy
}

// allocLocked finds or maps a block for size payload bytes, marks it in use,
// splits off any usable excess and names it. a.mu must be held.
func (a *Allocator) allocLocked(size int, name string, named bool) (block, error) {
	a.stats.AllocCalls++

	if size <= 0 || size > maxRequest {
		a.stats.FailedAllocs++
		return block{}, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if a.strategy >= StrategyUnknown {
		a.stats.FailedAllocs++
		return block{}, ErrUnknownStrategy
	}

	need := format.BlockSpan(size)

	b, ok := a.find(need)
	if ok {
		a.stats.ReuseHits++
	} else {
		var err error
		if b, err = a.acquireRegion(need); err != nil {
			a.stats.FailedAllocs++
			return block{}, err
		}
	}

	b.setFree(false)
	a.split(b, need)

	if !named {
		name = namePrefix + strconv.FormatUint(a.allocations, 10)
	}
	b.setName(name)
	a.allocations++

	a.stats.BytesInUse += int64(b.size())
	return b, nil
}

// freeLocked marks b free, merges it with its neighbours and unmaps the
// region if nothing else lives in it. a.mu must be held.
func (a *Allocator) freeLocked(b block) {
	a.stats.FreeCalls++
	a.stats.BytesInUse -= int64(b.size())

	b.setFree(true)
	m := a.coalesce(b)
	if m.spansRegion() {
		// An unmap failure leaves the region linked as free space; it has
		// already been logged and the free itself succeeded.
		_ = a.releaseRegion(m)
	}
}

// scribbleLocked fills b's payload with the sentinel byte when enabled.
func (a *Allocator) scribbleLocked(b block) {
	if !a.scribble {
		return
	}
	p := b.payload()
	for i := range p {
		p[i] = format.ScribbleByte
	}
}

// blockOf recovers the in-use block whose payload starts at buf[0].
func (a *Allocator) blockOf(buf []byte) (block, error) {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if addr < format.HeaderSize {
		return block{}, ErrBadPointer
	}
	b, ok := a.resolve(addr - format.HeaderSize)
	if !ok {
		return block{}, fmt.Errorf("%w: %#x", ErrBadPointer, addr)
	}
	if b.magic() != format.BlockMagic || b.regionID() != b.r.id {
		return block{}, fmt.Errorf("%w: %#x", ErrBadPointer, addr)
	}
	if sz := b.size(); sz < format.HeaderSize || b.off+sz > len(b.r.data) {
		return block{}, fmt.Errorf("%w: %#x", ErrBadPointer, addr)
	}
	if b.free() {
		return block{}, fmt.Errorf("%w: %#x", ErrDoubleFree, addr)
	}
	return b, nil
}
