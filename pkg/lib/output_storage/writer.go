package output_storage

import (
	"bytes"
	"sync"
)

// Write implements io.Writer for OutputStorage.
// It appends a copy of p so callers may reuse their buffer.
func (s *OutputStorage) Write(p []byte) (int, error) {
	if s == nil {
		return len(p), nil
	}
	if len(p) == 0 {
		return 0, nil
	}

	cp := append([]byte(nil), p...)
	s.Append(cp)

	return len(p), nil
}

// maxLine bounds the partial line kept while waiting for a newline.
const maxLine = 64 * 1024

// LineWriter splits a byte stream into lines and hands each trimmed,
// non-empty line to a callback. Oversized lines are emitted in pieces.
type LineWriter struct {
	mu     sync.Mutex
	buf    []byte
	onLine func(string)
}

func NewLineWriter(onLine func(string)) *LineWriter {
	return &LineWriter{onLine: onLine}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	for len(w.buf) > maxLine {
		w.emit(w.buf[:maxLine])
		w.buf = w.buf[maxLine:]
	}
	if len(w.buf) == 0 {
		w.buf = nil
	}
	return len(p), nil
}

// Flush emits a trailing line that was not terminated by a newline.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(w.buf)
	}
	w.buf = nil
}

func (w *LineWriter) emit(line []byte) {
	s := string(bytes.TrimSpace(line))
	if s == "" || w.onLine == nil {
		return
	}
	w.onLine(s)
}
