package alloc

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentChurn runs allocation traffic from several goroutines
// against real OS mappings. Every live buffer carries a pattern derived from
// its owner so overlapping blocks show up as corrupted data.
func TestConcurrentChurn(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping churn test in short mode")
	}

	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			a := New(Config{Strategy: s, Scribble: true})

			const (
				workers = 8
				rounds  = 2000
			)

			errs := make(chan error, workers)
			var wg sync.WaitGroup
			for w := range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- churn(a, uint64(w), rounds)
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				require.NoError(t, err)
			}
			require.NoError(t, a.Verify())
			assert.Zero(t, a.Regions(), "all regions are released once everything is freed")
			assert.Zero(t, a.Stats().BytesInUse)
			assert.Zero(t, a.Stats().BytesMapped)
		})
	}
}

func churn(a *Allocator, seed uint64, rounds int) error {
	rng := rand.New(rand.NewPCG(seed, seed*7+1))
	var live [][]byte
	tag := byte(seed * 31)

	check := func(buf []byte) error {
		for i, c := range buf {
			if c != tag+byte(i) {
				return &InvariantError{Kind: "Data", Message: "payload overwritten", Addr: sliceAddr(buf) + uintptr(i)}
			}
		}
		return nil
	}

	for range rounds {
		switch op := rng.IntN(10); {
		case op < 5 || len(live) == 0:
			size := 1 + rng.IntN(6000)
			var (
				buf []byte
				err error
			)
			if op == 0 {
				buf, err = a.Calloc(size, 1)
			} else {
				buf, err = a.Alloc(size)
			}
			if err != nil {
				return err
			}
			pattern(buf, tag)
			live = append(live, buf)
		case op < 7:
			i := rng.IntN(len(live))
			if err := check(live[i]); err != nil {
				return err
			}
			buf, err := a.Realloc(live[i], 1+rng.IntN(8000))
			if err != nil {
				return err
			}
			n := min(len(live[i]), len(buf))
			if err := check(buf[:n]); err != nil {
				return err
			}
			pattern(buf, tag)
			live[i] = buf
		default:
			i := rng.IntN(len(live))
			if err := check(live[i]); err != nil {
				return err
			}
			if err := a.Free(live[i]); err != nil {
				return err
			}
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}

	for _, buf := range live {
		if err := check(buf); err != nil {
			return err
		}
		if err := a.Free(buf); err != nil {
			return err
		}
	}
	return nil
}
