package format

// Alignment utilities for block and region sizes.

const (
	// BlockAlignment is the granularity of payload addresses and capacities.
	BlockAlignment = 8

	// BlockAlignmentMask is BlockAlignment - 1.
	BlockAlignmentMask = BlockAlignment - 1
)

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(16) = 16
func Align8(n int) int {
	return (n + BlockAlignmentMask) & ^BlockAlignmentMask
}

// AlignPage returns n aligned up to the next multiple of pageSize.
// pageSize must be a power of two.
//
// Example (4KB pages):
//
//	AlignPage(1, 4096)    = 4096
//	AlignPage(4096, 4096) = 4096
//	AlignPage(4097, 4096) = 8192
func AlignPage(n, pageSize int) int {
	mask := pageSize - 1
	return (n + mask) & ^mask
}

// BlockSpan returns the total block size (header + payload) needed to serve a
// payload of n bytes, rounded so the payload capacity stays a multiple of 8.
func BlockSpan(n int) int {
	return Align8(HeaderSize + n)
}
