package output_storage

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	var sb strings.Builder
	timeout := time.After(2 * time.Second)
	for {
		select {
		case b, ok := <-ch:
			if !ok {
				return sb.String()
			}
			sb.Write(b)
		case <-timeout:
			t.Fatalf("output channel did not close; got %q so far", sb.String())
		}
	}
}

func TestWrite_CopiesCallerBuffer(t *testing.T) {
	s := RunNewOutputStorage()
	defer s.Stop()

	// os/exec reuses its copy buffer between reads
	buf := []byte("block 1\n")
	n, err := s.Write(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	copy(buf, "BLOCK 2\n")
	_, err = s.Write(buf)
	require.NoError(t, err)

	require.Equal(t, "block 1\nBLOCK 2\n", s.String())
	require.Equal(t, int64(16), s.Len())
}

func TestWrite_EmptyIsNoop(t *testing.T) {
	s := RunNewOutputStorage()
	defer s.Stop()

	n, err := s.Write(nil)
	require.NoError(t, err)
	require.Zero(t, n)

	chunks := 0
	s.ForEach(func([]byte) bool { chunks++; return true })
	require.Zero(t, chunks)
	require.Zero(t, s.Len())
}

func TestAppend_KeepsSliceAndCountsBytes(t *testing.T) {
	s := RunNewOutputStorage()
	defer s.Stop()

	data := []byte("abc")
	s.Append(data)
	data[0] = 'z'
	require.Equal(t, "zbc", s.String())
	require.Equal(t, int64(3), s.Len())
}

func TestForEach_StopsEarly(t *testing.T) {
	s := RunNewOutputStorage()
	defer s.Stop()
	for _, line := range []string{"a\n", "b\n", "c\n"} {
		_, _ = s.Write([]byte(line))
	}

	var seen []string
	s.ForEach(func(b []byte) bool {
		seen = append(seen, string(b))
		return len(seen) < 2
	})
	require.Equal(t, []string{"a\n", "b\n"}, seen)
}

// A handle whose run never produced storage must behave like an empty run.
func TestNilStorage(t *testing.T) {
	var s *OutputStorage

	n, err := s.Write([]byte("lost"))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	s.Append([]byte("x"))
	s.Stop()
	s.ForEach(func([]byte) bool {
		t.Fatal("nil storage has no chunks")
		return false
	})
	require.Zero(t, s.Len())
	require.Empty(t, s.Bytes())
}

func TestSubscribe_FinishedRunReplaysAndCloses(t *testing.T) {
	s := RunNewOutputStorage()
	_, _ = s.Write([]byte("Superaxecoin version v1.0\n"))
	_, _ = s.Write([]byte("Loading block index...\n"))
	// the node exited
	s.Stop()

	// any number of late readers get the whole run
	for i := 0; i < 3; i++ {
		require.Equal(t, "Superaxecoin version v1.0\nLoading block index...\n", drain(t, s.Subscribe(1)))
	}
}

func TestSubscribe_LiveRunFollowsUntilExit(t *testing.T) {
	s := RunNewOutputStorage()
	_, _ = s.Write([]byte("early\n"))

	ch := s.Subscribe(4)
	v, ok := recvWithTimeout(t, ch, time.Second)
	require.True(t, ok)
	require.Equal(t, "early\n", string(v))
	assertNoRecv(t, ch, 50*time.Millisecond)

	_, _ = s.Write([]byte("late\n"))
	v, ok = recvWithTimeout(t, ch, time.Second)
	require.True(t, ok)
	require.Equal(t, "late\n", string(v))

	s.Stop()
	_, ok = recvWithTimeout(t, ch, time.Second)
	require.False(t, ok, "channel must close when the run ends")
}

func TestSubscribe_RunWithoutOutput(t *testing.T) {
	s := RunNewOutputStorage()
	ch := s.Subscribe(1)
	s.Stop()
	require.Empty(t, drain(t, ch))
}

// The supervisor tees the child's output into storage and a line splitter.
func TestTeeWithLineWriter(t *testing.T) {
	s := RunNewOutputStorage()
	var lines []string
	lw := NewLineWriter(func(line string) { lines = append(lines, line) })
	w := io.MultiWriter(s, lw)

	for _, part := range []string{"init mes", "sage\n  \n", "tip height=12\r\nno newline"} {
		_, err := w.Write([]byte(part))
		require.NoError(t, err)
	}
	lw.Flush()
	s.Stop()

	require.Equal(t, "init message\n  \ntip height=12\r\nno newline", drain(t, s.Subscribe(1)))
	require.Equal(t, []string{"init message", "tip height=12", "no newline"}, lines)
}
