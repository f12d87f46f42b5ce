package transfer

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/AtDexters-Lab/nexus-ftp/internal/iface"
	"github.com/AtDexters-Lab/nexus-ftp/internal/protocol"
)

// Engine streams whole files across an established data channel. Each file
// body is preceded by a data packet carrying its decimal length and is
// otherwise unframed.
type Engine struct {
	codec     *protocol.Codec
	store     iface.FileStore
	chunkSize int
	buffers   *bufferPool

	onProgress    ProgressFunc
	progressEvery time.Duration
}

// NewEngine creates an engine that reads and writes files in store.
func NewEngine(codec *protocol.Codec, store iface.FileStore, chunkSize int) *Engine {
	return &Engine{
		codec:     codec,
		store:     store,
		chunkSize: chunkSize,
		buffers:   newBufferPool(chunkSize),
	}
}

// SetProgress makes the engine report each transfer to fn, at most once per
// every while bytes are moving and once more when the transfer ends.
func (e *Engine) SetProgress(fn ProgressFunc, every time.Duration) {
	e.onProgress = fn
	e.progressEvery = every
}

// SendFile writes the length preamble for name followed by its bytes. The
// caller is expected to have checked that the file exists.
func (e *Engine) SendFile(w io.Writer, name string) (int64, error) {
	rc, info, err := e.store.Open(name)
	if err != nil {
		return 0, fmt.Errorf("opening %s for send: %w", name, err)
	}
	defer rc.Close()

	size := info.Size()
	if err := e.codec.WriteData(w, strconv.FormatInt(size, 10)); err != nil {
		return 0, fmt.Errorf("sending length of %s: %w", name, err)
	}
	if size == 0 {
		return 0, nil
	}

	bufPtr := e.buffers.get()
	defer e.buffers.put(bufPtr)
	buf := *bufPtr

	m := e.newMeter(name, Sending, size)
	defer m.finish()

	var sent int64
	for sent < size {
		n := int64(len(buf))
		if remaining := size - sent; remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(rc, buf[:n]); err != nil {
			return sent, fmt.Errorf("%w: reading %s at offset %d: %w", protocol.ErrStorage, name, sent, err)
		}
		if err := protocol.SendAll(w, buf[:n]); err != nil {
			return sent, fmt.Errorf("sending %s: %w", name, err)
		}
		sent += n
		m.add(n)
	}
	return sent, nil
}

// RecvFile truncates name, reads the length preamble, and writes exactly that
// many bytes from r into it. If the peer stops early, the bytes received so
// far stay on disk and ErrIncompleteTransfer is returned.
func (e *Engine) RecvFile(r io.Reader, name string) (written int64, err error) {
	wc, err := e.store.Create(name)
	if err != nil {
		return 0, fmt.Errorf("opening %s for receive: %w", name, err)
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: closing %s: %w", protocol.ErrStorage, name, cerr)
		}
	}()

	payload, err := e.codec.DecodeData(r)
	if err != nil {
		return 0, fmt.Errorf("reading length of %s: %w", name, err)
	}
	size, err := parseSize(payload)
	if err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, nil
	}

	bufPtr := e.buffers.get()
	defer e.buffers.put(bufPtr)
	buf := *bufPtr

	m := e.newMeter(name, Receiving, size)
	defer m.finish()

	for written < size {
		n := int64(len(buf))
		if remaining := size - written; remaining < n {
			n = remaining
		}
		got, rerr := protocol.ReadExact(r, buf[:n])
		if got > 0 {
			if _, werr := wc.Write(buf[:got]); werr != nil {
				return written, fmt.Errorf("%w: writing %s: %w", protocol.ErrStorage, name, werr)
			}
			written += int64(got)
			m.add(int64(got))
		}
		if rerr != nil {
			return written, fmt.Errorf("%w: %s: received %d of %d bytes: %w", protocol.ErrIncompleteTransfer, name, written, size, rerr)
		}
	}
	return written, nil
}

func parseSize(payload string) (int64, error) {
	if payload == "" {
		return 0, fmt.Errorf("%w: empty file length", protocol.ErrMalformedLength)
	}
	for i := 0; i < len(payload); i++ {
		if payload[i] < '0' || payload[i] > '9' {
			return 0, fmt.Errorf("%w: file length %q", protocol.ErrMalformedLength, payload)
		}
	}
	size, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: file length %q: %v", protocol.ErrMalformedLength, payload, err)
	}
	return size, nil
}
