package protocol

import (
	"errors"
	"fmt"
	"io"
	"slices"
)

// MaxRecvSize bounds each underlying read issued by ReadExact.
const MaxRecvSize = 8192

// SendAll writes every byte of b to w, reissuing writes until nothing is left.
// A write that accepts zero bytes is treated as a lost connection.
func SendAll(w io.Writer, b []byte) error {
	total := len(b)
	for len(b) > 0 {
		n, err := w.Write(b)
		b = b[n:]
		if err != nil {
			return fmt.Errorf("%w: sent %d of %d bytes: %w", ErrConnectionLost, total-len(b), total, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: sent %d of %d bytes", ErrConnectionLost, total-len(b), total)
		}
	}
	return nil
}

// ReadExact fills buf from r using reads of at most MaxRecvSize bytes each.
// It returns the number of bytes read; anything short of len(buf) comes with
// an ErrConnectionLost error.
func ReadExact(r io.Reader, buf []byte) (int, error) {
	got := 0
	for got < len(buf) {
		end := got + MaxRecvSize
		if end > len(buf) {
			end = len(buf)
		}
		n, err := r.Read(buf[got:end])
		got += n
		if got == len(buf) {
			return got, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return got, fmt.Errorf("%w: received %d of %d bytes", ErrConnectionLost, got, len(buf))
			}
			return got, fmt.Errorf("%w: received %d of %d bytes: %w", ErrConnectionLost, got, len(buf), err)
		}
		if n == 0 {
			return got, fmt.Errorf("%w: received %d of %d bytes", ErrConnectionLost, got, len(buf))
		}
	}
	return got, nil
}

// RecvExact reads exactly n bytes from r. The buffer grows one bounded read
// at a time, so a declared length that never arrives costs no more memory
// than the bytes that did. On failure those bytes are returned alongside
// the error.
func RecvExact(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, 0, min(n, MaxRecvSize))
	for len(buf) < n {
		step := min(n-len(buf), MaxRecvSize)
		buf = slices.Grow(buf, step)
		got, err := ReadExact(r, buf[len(buf):len(buf)+step])
		buf = buf[:len(buf)+got]
		if err != nil {
			return buf, fmt.Errorf("after %d of %d bytes: %w", len(buf), n, err)
		}
	}
	return buf, nil
}
