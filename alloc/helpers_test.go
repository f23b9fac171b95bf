package alloc

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mapalloc/internal/format"
)

// testPageSize keeps region arithmetic in tests independent of the host.
const testPageSize = 4096

// firstBlockSpan is the size of the single block of a fresh one-page region.
const firstBlockSpan = testPageSize - format.RegionHeaderSize

var (
	errMapDenied   = errors.New("mapping denied")
	errUnmapDenied = errors.New("unmapping denied")
)

// heapMapper hands out Go heap buffers as regions and counts calls.
type heapMapper struct {
	pageSize  int
	fail      bool
	failUnmap bool
	maps      int
	unmaps    int
	live      map[uintptr]int
}

func newHeapMapper() *heapMapper {
	return &heapMapper{pageSize: testPageSize, live: make(map[uintptr]int)}
}

func (m *heapMapper) Map(size int) ([]byte, error) {
	if m.fail {
		return nil, errMapDenied
	}
	m.maps++
	mem := make([]byte, size)
	m.live[sliceAddr(mem)] = size
	return mem, nil
}

func (m *heapMapper) Unmap(mem []byte) error {
	if m.failUnmap {
		return errUnmapDenied
	}
	m.unmaps++
	delete(m.live, sliceAddr(mem))
	return nil
}

func (m *heapMapper) PageSize() int { return m.pageSize }

// newTestAllocator returns an allocator over a heapMapper.
func newTestAllocator(t testing.TB, s Strategy) (*Allocator, *heapMapper) {
	t.Helper()
	m := newHeapMapper()
	return New(Config{Strategy: s, Mapper: m}), m
}

func sliceAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// headerAddr returns the header address of the block behind buf.
func headerAddr(buf []byte) uintptr {
	return sliceAddr(buf) - format.HeaderSize
}

// allocSpan allocates a block whose total size (header included) is exactly span.
// span must be a multiple of 8.
func allocSpan(t testing.TB, a *Allocator, span int) []byte {
	t.Helper()
	require.Zero(t, span%format.BlockAlignment, "span must be 8-byte granular")
	buf, err := a.Alloc(span - format.HeaderSize)
	require.NoError(t, err)
	return buf
}

// mustAlloc allocates size bytes or fails the test.
func mustAlloc(t testing.TB, a *Allocator, size int) []byte {
	t.Helper()
	buf, err := a.Alloc(size)
	require.NoError(t, err)
	require.Len(t, buf, size)
	return buf
}

// blockInfo returns the snapshot of the block whose header is at addr.
func blockInfo(t testing.TB, a *Allocator, addr uintptr) BlockInfo {
	t.Helper()
	for _, b := range a.Blocks() {
		if b.Start == addr {
			return b
		}
	}
	require.FailNowf(t, "block not found", "no block at %#x", addr)
	return BlockInfo{}
}

// fillTail allocates whatever is left of the last region so later requests
// only see the free blocks a test creates deliberately.
func fillTail(t testing.TB, a *Allocator) []byte {
	t.Helper()
	blocks := a.Blocks()
	require.NotEmpty(t, blocks)
	last := blocks[len(blocks)-1]
	require.True(t, last.Free, "tail block should be free")
	// The tail is 4 mod 8; ask for the largest 8-granular span inside it.
	buf, err := a.Alloc(last.Size - format.HeaderSize - format.BlockAlignment/2)
	require.NoError(t, err)
	require.Equal(t, last.Start, headerAddr(buf), "filler should take the tail block")
	return buf
}

// assertInvariants fails the test if the block list is inconsistent.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Verify())
}

// pattern fills buf with a position-dependent byte sequence.
func pattern(buf []byte, seed byte) {
	for i := range buf {
		buf[i] = seed + byte(i)
	}
}
