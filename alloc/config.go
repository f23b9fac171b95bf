package alloc

import (
	"log/slog"
	"os"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvAlgorithm = "ALLOCATOR_ALGORITHM"
	EnvScribble  = "ALLOCATOR_SCRIBBLE"

	// scribbleOn is the only value of ALLOCATOR_SCRIBBLE that enables sentinel fill.
	scribbleOn = "1"
)

// Config controls an Allocator. The zero value is a first-fit allocator over
// OS mappings with sentinel fill disabled.
type Config struct {
	// Strategy selects the fit strategy. StrategyUnknown makes every
	// allocation fail until SetStrategy is called with a valid one.
	Strategy Strategy

	// Scribble fills fresh payloads with format.ScribbleByte. Calloc results
	// are never scribbled.
	Scribble bool

	// Mapper supplies region memory. Default: anonymous OS mappings.
	Mapper Mapper

	// Logger receives region lifecycle events. Default: logger.L
	Logger *slog.Logger
}

// ConfigFromEnv builds a Config from ALLOCATOR_ALGORITHM and
// ALLOCATOR_SCRIBBLE. An unrecognised algorithm is not an error here; it
// surfaces as ErrUnknownStrategy on the first allocation.
func ConfigFromEnv() Config {
	strategy, _ := ParseStrategy(os.Getenv(EnvAlgorithm))
	return Config{
		Strategy: strategy,
		Scribble: os.Getenv(EnvScribble) == scribbleOn,
	}
}
