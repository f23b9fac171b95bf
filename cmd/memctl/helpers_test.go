package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// writeTrace writes a trace file into a temp dir and returns its path
func writeTrace(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.trace")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write trace: %v", err)
	}
	return path
}

// resetFlags restores the global flags to their defaults
func resetFlags(t *testing.T) {
	t.Helper()
	verbose, quiet, jsonOut, scribble = false, false, false, false
	strategy = ""
	t.Setenv("ALLOCATOR_ALGORITHM", "")
	t.Setenv("ALLOCATOR_SCRIBBLE", "")
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	return string(<-done), fnErr
}
