package output_storage

import (
	"strings"
	"testing"
)

func TestLineWriter_SplitsAcrossWrites(t *testing.T) {
	var lines []string
	w := NewLineWriter(func(s string) { lines = append(lines, s) })

	_, _ = w.Write([]byte("Bitcoin version v0.1\nLoading blo"))
	_, _ = w.Write([]byte("ck index...\n\n   \r\n"))
	_, _ = w.Write([]byte("tail without newline"))

	if got, want := strings.Join(lines, "|"), "Bitcoin version v0.1|Loading block index..."; got != want {
		t.Fatalf("lines mismatch: got=%q want=%q", got, want)
	}

	w.Flush()
	if got := lines[len(lines)-1]; got != "tail without newline" {
		t.Fatalf("expected flushed tail, got %q", got)
	}

	// nothing left after a flush
	w.Flush()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestLineWriter_OversizedLineIsChunked(t *testing.T) {
	var lines []string
	w := NewLineWriter(func(s string) { lines = append(lines, s) })

	long := strings.Repeat("x", maxLine+10)
	n, err := w.Write([]byte(long))
	if err != nil || n != len(long) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	if len(lines) != 1 || len(lines[0]) != maxLine {
		t.Fatalf("expected one chunk of %d bytes, got %d lines", maxLine, len(lines))
	}
	w.Flush()
	if len(lines) != 2 || lines[1] != strings.Repeat("x", 10) {
		t.Fatalf("unexpected remainder: %v", len(lines))
	}
}

func TestOutputStorageWrite_CopiesInput(t *testing.T) {
	s := RunNewOutputStorage()
	defer s.Stop()

	buf := []byte("abc")
	if n, err := s.Write(buf); n != 3 || err != nil {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	buf[0] = 'z'
	if got := s.String(); got != "abc" {
		t.Fatalf("expected a copy to be stored, got %q", got)
	}
	if s.Len() != 3 {
		t.Fatalf("expected Len 3, got %d", s.Len())
	}
}
