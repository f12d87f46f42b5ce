package protocol

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

// trickleWriter accepts at most limit bytes per call.
type trickleWriter struct {
	buf   bytes.Buffer
	limit int
	calls int
}

func (w *trickleWriter) Write(p []byte) (int, error) {
	w.calls++
	if len(p) > w.limit {
		p = p[:w.limit]
	}
	return w.buf.Write(p)
}

// stallingWriter accepts budget bytes and then reports zero progress.
type stallingWriter struct {
	budget int
}

func (w *stallingWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n > w.budget {
		n = w.budget
	}
	w.budget -= n
	return n, nil
}

// countingReader records the largest read request it sees.
type countingReader struct {
	r       io.Reader
	largest int
}

func (c *countingReader) Read(p []byte) (int, error) {
	if len(p) > c.largest {
		c.largest = len(p)
	}
	return c.r.Read(p)
}

func TestSendAllLoopsOverPartialWrites(t *testing.T) {
	w := &trickleWriter{limit: 3}
	require.NoError(t, SendAll(w, []byte("hello, world")))
	require.Equal(t, "hello, world", w.buf.String())
	require.Equal(t, 4, w.calls)
}

func TestSendAllZeroProgressIsConnectionLost(t *testing.T) {
	err := SendAll(&stallingWriter{budget: 5}, []byte("0123456789"))
	require.ErrorIs(t, err, ErrConnectionLost)
	require.Contains(t, err.Error(), "sent 5 of 10")
}

func TestSendAllWriteErrorIsConnectionLost(t *testing.T) {
	boom := errors.New("broken pipe")
	err := SendAll(errWriter{boom}, []byte("x"))
	require.ErrorIs(t, err, ErrConnectionLost)
	require.ErrorIs(t, err, boom)
}

type errWriter struct{ err error }

func (w errWriter) Write([]byte) (int, error) { return 0, w.err }

func TestRecvExactAccumulatesPartialReads(t *testing.T) {
	got, err := RecvExact(iotest.OneByteReader(strings.NewReader("abcdefgh")), 5)
	require.NoError(t, err)
	require.Equal(t, "abcde", string(got))
}

func TestRecvExactBoundsEachRead(t *testing.T) {
	src := bytes.Repeat([]byte{0xAB}, 3*MaxRecvSize+7)
	cr := &countingReader{r: bytes.NewReader(src)}

	got, err := RecvExact(cr, len(src))
	require.NoError(t, err)
	require.Equal(t, src, got)
	require.LessOrEqual(t, cr.largest, MaxRecvSize)
}

func TestRecvExactShortStreamReturnsPartial(t *testing.T) {
	got, err := RecvExact(strings.NewReader("abc"), 10)
	require.ErrorIs(t, err, ErrConnectionLost)
	require.Equal(t, "abc", string(got))
}

func TestRecvExactGrowsOnlyWithArrivingBytes(t *testing.T) {
	got, err := RecvExact(strings.NewReader("abc"), math.MaxInt32)
	require.ErrorIs(t, err, ErrConnectionLost)
	require.Equal(t, "abc", string(got))
	require.LessOrEqual(t, cap(got), MaxRecvSize)
}

func TestRecvExactZero(t *testing.T) {
	got, err := RecvExact(strings.NewReader(""), 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRecvExactSucceedsWhenEOFArrivesWithLastBytes(t *testing.T) {
	got, err := RecvExact(iotest.DataErrReader(strings.NewReader("abcd")), 4)
	require.NoError(t, err)
	require.Equal(t, "abcd", string(got))
}
