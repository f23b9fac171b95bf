package alloc

import (
	"fmt"

	"github.com/joshuapare/mapalloc/internal/format"
)

// Strategy selects how a free block is chosen for a request.
type Strategy uint8

const (
	FirstFit Strategy = iota
	BestFit
	WorstFit

	// StrategyUnknown makes every allocation fail with ErrUnknownStrategy
	// until a valid strategy is set.
	StrategyUnknown
)

// Strategy names as accepted by ParseStrategy and ALLOCATOR_ALGORITHM.
const (
	NameFirstFit = "first_fit"
	NameBestFit  = "best_fit"
	NameWorstFit = "worst_fit"
)

func (s Strategy) String() string {
	switch s {
	case FirstFit:
		return NameFirstFit
	case BestFit:
		return NameBestFit
	case WorstFit:
		return NameWorstFit
	default:
		return "unknown"
	}
}

// Strategies lists the recognised strategies in declaration order.
func Strategies() []Strategy {
	return []Strategy{FirstFit, BestFit, WorstFit}
}

// ParseStrategy resolves a strategy name. The empty string selects FirstFit;
// anything unrecognised returns StrategyUnknown and ErrUnknownStrategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", NameFirstFit:
		return FirstFit, nil
	case NameBestFit:
		return BestFit, nil
	case NameWorstFit:
		return WorstFit, nil
	default:
		return StrategyUnknown, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// BlockInfo is a snapshot of one block header.
type BlockInfo struct {
	RegionID uint64  `json:"region_id"`
	Start    uintptr `json:"start"`
	End      uintptr `json:"end"`
	Name     string  `json:"name"`
	Size     int     `json:"size"`
	Free     bool    `json:"free"`
}

// Usable returns the payload capacity of the block.
func (b BlockInfo) Usable() int { return b.Size - format.HeaderSize }

// Payload returns the payload start address.
func (b BlockInfo) Payload() uintptr { return b.Start + format.HeaderSize }

// Stats holds allocator counters.
type Stats struct {
	// Allocations attempted, including those made by Calloc and Realloc
	AllocCalls   int `json:"alloc_calls"`
	CallocCalls  int `json:"calloc_calls"`
	ReallocCalls int `json:"realloc_calls"`
	// Realloc calls answered with the same block
	ReallocInPlace int `json:"realloc_in_place"`
	// Blocks released, explicitly or by Realloc
	FreeCalls int `json:"free_calls"`
	// Allocations served by an existing free block
	ReuseHits       int `json:"reuse_hits"`
	FailedAllocs    int `json:"failed_allocs"`
	RegionsMapped   int `json:"regions_mapped"`
	RegionsUnmapped int `json:"regions_unmapped"`
	MapFailures     int `json:"map_failures"`
	SplitCount      int `json:"split_count"`
	// Merges with the right neighbour
	CoalesceForward int `json:"coalesce_forward"`
	// Merges into the left neighbour
	CoalesceBackward int `json:"coalesce_backward"`
	// Block bytes (headers included) held by callers
	BytesInUse      int64 `json:"bytes_in_use"`
	BytesMapped     int64 `json:"bytes_mapped"`
	PeakBytesMapped int64 `json:"peak_bytes_mapped"`
}
