package format

// Block header layout. Every block in a region starts with a fixed 100-byte
// header (little-endian):
//
//	Offset  Size  Field
//	0x00    32    name, NUL-terminated
//	0x20    8     size of the block including this header
//	0x28    1     free flag (1 = free, 0 = in use)
//	0x29    8     owning region id
//	0x31    8     address of the next block (0 = tail)
//	0x39    8     address of the previous block (0 = head)
//	0x41    4     magic
//	0x45    31    padding
//
// The header size is fixed regardless of the fields so address arithmetic
// stays uniform; new fields must come out of the padding.
const (
	HeaderSize = 100

	NameOffset     = 0x00
	SizeOffset     = 0x20
	FreeOffset     = 0x28
	RegionIDOffset = 0x29
	NextOffset     = 0x31
	PrevOffset     = 0x39
	MagicOffset    = 0x41
	PaddingOffset  = 0x45

	// NameCap is the capacity of the name field including the terminator.
	NameCap = SizeOffset - NameOffset
	// NameMaxLen is the number of visible name bytes that fit.
	NameMaxLen = NameCap - 1

	PaddingLen = HeaderSize - PaddingOffset
)

// BlockMagic marks a live header ("MBLK").
const BlockMagic uint32 = 0x4d424c4b

// Region prologue layout. Each mapping begins with a 12-byte prologue and the
// first block follows it directly.
//
//	Offset  Size  Field
//	0x00    4     'r' 'g' 'n' 0x00
//	0x04    8     region id
//
// The prologue length is 4 mod 8, which puts every block start at 4 mod 8
// and therefore every payload (start + HeaderSize) on an 8-byte boundary.
// Payload capacities are multiples of 8. Block sizes are multiples of 8
// except the last block of a region, which ends at the page boundary and is
// 4 mod 8.
const (
	RegionHeaderSize    = 0x0C
	RegionIDFieldOffset = 0x04
	RegionSignatureLen  = RegionIDFieldOffset
)

// RegionSignature identifies the start of a mapping.
var RegionSignature = []byte{'r', 'g', 'n', 0x00}

const (
	// MinPayload is the smallest payload worth carving into its own block.
	MinPayload = 8

	// MinSplitRemainder is the smallest remainder a split may leave behind.
	MinSplitRemainder = HeaderSize + MinPayload

	// ScribbleByte fills fresh payloads when sentinel fill is enabled.
	ScribbleByte byte = 0xAA
)
