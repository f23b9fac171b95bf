package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mapalloc/alloc"
)

func init() {
	rootCmd.AddCommand(newReplayCmd())
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay an allocation trace and print the memory map",
		Long: `The replay command runs the operations of a trace file against a fresh
allocator and prints the final memory map. Use "-" to read from stdin.

Trace lines:
  alloc   <id> <size> [name...]
  calloc  <id> <count> <size>
  realloc <id> <size>
  free    <id>
  dump
Blank lines and lines starting with # are ignored. Ids are arbitrary words
naming the live buffers.

Example:
  memctl replay session.trace
  memctl replay session.trace --strategy best_fit --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
}

type opKind int

const (
	opAlloc opKind = iota
	opCalloc
	opRealloc
	opFree
	opDump
)

// traceOp is one parsed trace line.
type traceOp struct {
	line  int
	kind  opKind
	id    string
	size  int
	count int
	name  string
	named bool
}

// parseTrace reads a trace and reports the first malformed line.
func parseTrace(r io.Reader) ([]traceOp, error) {
	var ops []traceOp
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		op, err := parseOp(strings.Fields(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		op.line = lineNo
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	return ops, nil
}

func parseOp(f []string) (traceOp, error) {
	switch f[0] {
	case "alloc":
		if len(f) < 3 {
			return traceOp{}, fmt.Errorf("usage: alloc <id> <size> [name]")
		}
		size, err := parseSize(f[2])
		if err != nil {
			return traceOp{}, err
		}
		op := traceOp{kind: opAlloc, id: f[1], size: size}
		if len(f) > 3 {
			op.name = strings.Join(f[3:], " ")
			op.named = true
		}
		return op, nil
	case "calloc":
		if len(f) != 4 {
			return traceOp{}, fmt.Errorf("usage: calloc <id> <count> <size>")
		}
		count, err := parseSize(f[2])
		if err != nil {
			return traceOp{}, err
		}
		size, err := parseSize(f[3])
		if err != nil {
			return traceOp{}, err
		}
		return traceOp{kind: opCalloc, id: f[1], count: count, size: size}, nil
	case "realloc":
		if len(f) != 3 {
			return traceOp{}, fmt.Errorf("usage: realloc <id> <size>")
		}
		size, err := parseSize(f[2])
		if err != nil {
			return traceOp{}, err
		}
		return traceOp{kind: opRealloc, id: f[1], size: size}, nil
	case "free":
		if len(f) != 2 {
			return traceOp{}, fmt.Errorf("usage: free <id>")
		}
		return traceOp{kind: opFree, id: f[1]}, nil
	case "dump":
		if len(f) != 1 {
			return traceOp{}, fmt.Errorf("usage: dump")
		}
		return traceOp{kind: opDump}, nil
	default:
		return traceOp{}, fmt.Errorf("unknown operation %q", f[0])
	}
}

func parseSize(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n, nil
}

// replayer applies trace operations to an allocator.
type replayer struct {
	a    *alloc.Allocator
	live map[string][]byte
	out  io.Writer // receives dump output; nil discards it
}

func (r *replayer) apply(op traceOp) error {
	var err error
	switch op.kind {
	case opAlloc:
		if _, ok := r.live[op.id]; ok {
			return fmt.Errorf("line %d: id %q is still live", op.line, op.id)
		}
		var buf []byte
		if op.named {
			buf, err = r.a.AllocNamed(op.size, op.name)
		} else {
			buf, err = r.a.Alloc(op.size)
		}
		if err == nil {
			r.live[op.id] = buf
		}
	case opCalloc:
		if _, ok := r.live[op.id]; ok {
			return fmt.Errorf("line %d: id %q is still live", op.line, op.id)
		}
		var buf []byte
		if buf, err = r.a.Calloc(op.count, op.size); err == nil {
			r.live[op.id] = buf
		}
	case opRealloc:
		// An unknown id reallocs from nil, which allocates.
		var buf []byte
		if buf, err = r.a.Realloc(r.live[op.id], op.size); err == nil {
			if buf == nil {
				delete(r.live, op.id)
			} else {
				r.live[op.id] = buf
			}
		}
	case opFree:
		buf, ok := r.live[op.id]
		if !ok {
			return fmt.Errorf("line %d: free of unknown id %q", op.line, op.id)
		}
		if err = r.a.Free(buf); err == nil {
			delete(r.live, op.id)
		}
	case opDump:
		if r.out != nil {
			err = r.a.Dump(r.out)
		}
	}
	if err != nil {
		return fmt.Errorf("line %d: %w", op.line, err)
	}
	return nil
}

// replayFile parses path ("-" for stdin) and replays it on a new allocator.
func replayFile(path string, out io.Writer) (*alloc.Allocator, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace: %w", err)
		}
		defer f.Close()
		r = f
	}

	ops, err := parseTrace(r)
	if err != nil {
		return nil, err
	}

	a, err := newAllocator()
	if err != nil {
		return nil, err
	}

	rp := &replayer{a: a, live: make(map[string][]byte), out: out}
	for _, op := range ops {
		if err := rp.apply(op); err != nil {
			return a, err
		}
	}
	printVerbose("Replayed %d operations, %d buffers live\n", len(ops), len(rp.live))
	return a, nil
}

type replayResult struct {
	Strategy string            `json:"strategy"`
	Blocks   []alloc.BlockInfo `json:"blocks"`
	Stats    alloc.Stats       `json:"stats"`
}

func runReplay(args []string) error {
	var out io.Writer
	if !quiet && !jsonOut {
		out = os.Stdout
	}

	a, err := replayFile(args[0], out)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(replayResult{
			Strategy: a.Strategy().String(),
			Blocks:   a.Blocks(),
			Stats:    a.Stats(),
		})
	}
	if out != nil {
		return a.Dump(out)
	}
	return nil
}
