package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeBlocks returns an allocator laid out as [used][used][free tail] and
// handles on the three blocks.
func threeBlocks(t *testing.T) (*Allocator, []block) {
	t.Helper()
	a, _ := newTestAllocator(t, FirstFit)
	mustAlloc(t, a, 100)
	mustAlloc(t, a, 100)

	var bs []block
	for b := range a.all() {
		bs = append(bs, b)
	}
	require.Len(t, bs, 3)
	require.NoError(t, a.Verify())
	return a, bs
}

func requireCorrupt(t *testing.T, a *Allocator, kind string) {
	t.Helper()
	err := a.Verify()
	require.ErrorIs(t, err, ErrCorrupt)
	var ie *InvariantError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, kind, ie.Kind, "error: %v", err)
}

func TestVerifyEmptyAllocator(t *testing.T) {
	a, _ := newTestAllocator(t, FirstFit)
	require.NoError(t, a.Verify())
}

func TestVerifyDetectsBadMagic(t *testing.T) {
	a, bs := threeBlocks(t)
	bs[1].retire()
	requireCorrupt(t, a, "Header")
}

func TestVerifyDetectsBrokenBackLink(t *testing.T) {
	a, bs := threeBlocks(t)
	bs[2].setPrev(bs[0].addr())
	requireCorrupt(t, a, "Link")
}

func TestVerifyDetectsAdjacentFree(t *testing.T) {
	a, bs := threeBlocks(t)
	bs[1].setFree(true) // next to the free tail, without merging
	requireCorrupt(t, a, "Coalesce")
}

func TestVerifyDetectsSizeDrift(t *testing.T) {
	a, bs := threeBlocks(t)
	bs[0].setSize(bs[0].size() + 8)
	requireCorrupt(t, a, "Region")
}

func TestVerifyDetectsWrongRegionID(t *testing.T) {
	a, bs := threeBlocks(t)
	bs[1].init(bs[1].size(), 7)
	bs[1].setFree(false)
	bs[1].setPrev(bs[0].addr())
	bs[1].setNext(bs[2].addr())
	requireCorrupt(t, a, "Header")
}

func TestVerifyDetectsBadPrologue(t *testing.T) {
	a, bs := threeBlocks(t)
	bs[0].r.data[0] = 'x'
	requireCorrupt(t, a, "Region")
}

func TestVerifyDetectsStaleTail(t *testing.T) {
	a, _ := threeBlocks(t)
	a.tail = a.head
	requireCorrupt(t, a, "List")
}

func TestInvariantErrorMessage(t *testing.T) {
	err := &InvariantError{Kind: "Link", Message: "prev is 0x0", Addr: 0x1000}
	assert.Equal(t, "Link at 0x1000: prev is 0x0", err.Error())

	err = &InvariantError{Kind: "Region", Message: "2 regions in list, 1 mapped"}
	assert.Equal(t, "Region: 2 regions in list, 1 mapped", err.Error())
}
