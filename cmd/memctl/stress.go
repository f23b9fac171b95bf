package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/bytedance/gopkg/util/xxhash3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/mapalloc/alloc"
)

var (
	stressWorkers int
	stressOps     int
	stressMaxSize int
	stressSeed    uint64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressWorkers, "workers", "w", 8, "Number of concurrent workers")
	cmd.Flags().IntVarP(&stressOps, "ops", "n", 10000, "Operations per worker")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 8192, "Largest request size in bytes")
	cmd.Flags().Uint64Var(&stressSeed, "seed", 1, "Random seed; worker i uses seed+i")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a concurrent allocation workload and verify the heap",
		Long: `The stress command runs workers that allocate, reallocate and free random
sizes against one allocator. Every live buffer is filled with random bytes
and checksummed; a checksum mismatch, an allocator error or a failed
structural check after the run aborts with an error.

Example:
  memctl stress
  memctl stress --workers 16 --ops 50000 --strategy best_fit --scribble`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd.Context())
		},
	}
}

type stressResult struct {
	Strategy string        `json:"strategy"`
	Workers  int           `json:"workers"`
	Ops      int           `json:"ops"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Stats    alloc.Stats   `json:"stats"`
	Regions  int           `json:"regions_live"`
}

func runStress(ctx context.Context) error {
	if stressWorkers < 1 || stressOps < 0 || stressMaxSize < 1 {
		return fmt.Errorf("workers and max-size must be positive, ops non-negative")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newAllocator()
	if err != nil {
		return err
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i := range stressWorkers {
		w := &stressWorker{
			a:       a,
			rng:     rand.New(rand.NewPCG(stressSeed+uint64(i), uint64(i))),
			maxSize: stressMaxSize,
		}
		g.Go(func() error {
			if err := w.run(ctx, stressOps); err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := a.Verify(); err != nil {
		return fmt.Errorf("heap verification failed: %w", err)
	}

	res := stressResult{
		Strategy: a.Strategy().String(),
		Workers:  stressWorkers,
		Ops:      stressWorkers * stressOps,
		Elapsed:  elapsed,
		Stats:    a.Stats(),
		Regions:  a.Regions(),
	}
	if jsonOut {
		return printJSON(res)
	}

	printInfo("Stress run: %s operations on %s workers (%s) in %s\n\n",
		formatNumber(res.Ops), formatNumber(res.Workers), res.Strategy, elapsed.Round(time.Millisecond))
	printStats(res.Stats, res.Regions)
	return nil
}

// liveBuf is a buffer owned by a worker and the checksum of its contents.
type liveBuf struct {
	buf []byte
	sum uint64
}

type stressWorker struct {
	a       *alloc.Allocator
	rng     *rand.Rand
	maxSize int
	live    []liveBuf
}

func (w *stressWorker) run(ctx context.Context, ops int) error {
	defer w.releaseAll()

	for i := range ops {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := w.step(); err != nil {
			return err
		}
	}
	return w.releaseAll()
}

func (w *stressWorker) step() error {
	op := w.rng.IntN(10)
	switch {
	case op < 5 || len(w.live) == 0:
		size := 1 + w.rng.IntN(w.maxSize)
		var (
			buf []byte
			err error
		)
		if op == 0 {
			buf, err = w.a.Calloc(size, 1)
			if err == nil && !allZero(buf) {
				return fmt.Errorf("calloc(%d) returned non-zero bytes", size)
			}
		} else {
			buf, err = w.a.Alloc(size)
		}
		if err != nil {
			return err
		}
		w.live = append(w.live, w.fill(buf))

	case op < 7:
		i := w.rng.IntN(len(w.live))
		lb := w.live[i]
		if err := lb.check(); err != nil {
			return err
		}
		size := 1 + w.rng.IntN(w.maxSize)
		keep := min(size, len(lb.buf))
		want := xxhash3.Hash(lb.buf[:keep])

		buf, err := w.a.Realloc(lb.buf, size)
		if err != nil {
			return err
		}
		if xxhash3.Hash(buf[:keep]) != want {
			return fmt.Errorf("realloc %d -> %d lost the first %d bytes", len(lb.buf), size, keep)
		}
		w.live[i] = w.fill(buf)

	default:
		i := w.rng.IntN(len(w.live))
		if err := w.live[i].check(); err != nil {
			return err
		}
		if err := w.a.Free(w.live[i].buf); err != nil {
			return err
		}
		w.live[i] = w.live[len(w.live)-1]
		w.live = w.live[:len(w.live)-1]
	}
	return nil
}

func allZero(buf []byte) bool {
	return !slices.ContainsFunc(buf, func(c byte) bool { return c != 0 })
}

func (w *stressWorker) fill(buf []byte) liveBuf {
	for i := 0; i < len(buf); i += 8 {
		v := w.rng.Uint64()
		for j := 0; j < 8 && i+j < len(buf); j++ {
			buf[i+j] = byte(v >> (8 * j))
		}
	}
	return liveBuf{buf: buf, sum: xxhash3.Hash(buf)}
}

func (lb liveBuf) check() error {
	if xxhash3.Hash(lb.buf) != lb.sum {
		return fmt.Errorf("buffer of %d bytes corrupted while live", len(lb.buf))
	}
	return nil
}

// releaseAll verifies and frees every live buffer. It is safe to call twice.
func (w *stressWorker) releaseAll() error {
	var first error
	for _, lb := range w.live {
		if err := lb.check(); err != nil && first == nil {
			first = err
		}
		if err := w.a.Free(lb.buf); err != nil && first == nil {
			first = err
		}
	}
	w.live = nil
	return first
}
