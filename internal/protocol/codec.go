package protocol

import (
	"fmt"
	"io"
	"strconv"
)

// Codec frames command and data packets with a fixed-width, zero-padded
// decimal length field. There is no terminator: decoding always consumes
// exactly the declared number of bytes.
//
//	command packet: <1-byte command><width-digit length><payload>
//	data packet:    <width-digit length><payload>
type Codec struct {
	width      int
	maxPayload int
}

// Default is the codec for the three-digit version 1 wire format.
var Default = NewCodec(DefaultLengthWidth)

// NewCodec returns a codec whose length field is width digits wide.
func NewCodec(width int) *Codec {
	maxPayload := 1
	for i := 0; i < width; i++ {
		maxPayload *= 10
	}
	return &Codec{width: width, maxPayload: maxPayload - 1}
}

// Width is the number of digits in the length field.
func (c *Codec) Width() int { return c.width }

// MaxPayload is the largest payload length the codec can frame.
func (c *Codec) MaxPayload() int { return c.maxPayload }

func (c *Codec) appendLength(dst []byte, n int) ([]byte, error) {
	if n > c.maxPayload {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d-digit length field (max %d)", ErrPayloadTooLarge, n, c.width, c.maxPayload)
	}
	return fmt.Appendf(dst, "%0*d", c.width, n), nil
}

func (c *Codec) parseLength(field []byte) (int, error) {
	for _, b := range field {
		if b < '0' || b > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedLength, field)
		}
	}
	n, err := strconv.Atoi(string(field))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedLength, field, err)
	}
	return n, nil
}

// EncodeCommand frames a command packet.
func (c *Codec) EncodeCommand(cmd Command, payload string) ([]byte, error) {
	if !cmd.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	buf := make([]byte, 1, 1+c.width+len(payload))
	buf[0] = byte(cmd)
	buf, err := c.appendLength(buf, len(payload))
	if err != nil {
		return nil, err
	}
	return append(buf, payload...), nil
}

// EncodeData frames a data packet.
func (c *Codec) EncodeData(payload string) ([]byte, error) {
	buf, err := c.appendLength(make([]byte, 0, c.width+len(payload)), len(payload))
	if err != nil {
		return nil, err
	}
	return append(buf, payload...), nil
}

// DecodeCommand reads one command packet from r. A frame carrying an unknown
// command byte is consumed in full before ErrUnknownCommand is returned, so
// the stream stays aligned on the next packet.
func (c *Codec) DecodeCommand(r io.Reader) (Command, string, error) {
	code, err := RecvExact(r, 1)
	if err != nil {
		return 0, "", fmt.Errorf("%w: reading command code: %w", ErrStreamClosed, err)
	}
	payload, err := c.DecodeData(r)
	if err != nil {
		return 0, "", err
	}
	cmd := Command(code[0])
	if !cmd.Valid() {
		return cmd, payload, fmt.Errorf("%w: %q", ErrUnknownCommand, code[0])
	}
	return cmd, payload, nil
}

// DecodeData reads one data packet from r.
func (c *Codec) DecodeData(r io.Reader) (string, error) {
	field, err := RecvExact(r, c.width)
	if err != nil {
		return "", fmt.Errorf("%w: reading length field: %w", ErrStreamClosed, err)
	}
	n, err := c.parseLength(field)
	if err != nil {
		return "", err
	}
	payload, err := RecvExact(r, n)
	if err != nil {
		return "", fmt.Errorf("%w: reading %d-byte payload: %w", ErrStreamClosed, n, err)
	}
	return string(payload), nil
}

// WriteCommand encodes a command packet and sends all of it to w.
func (c *Codec) WriteCommand(w io.Writer, cmd Command, payload string) error {
	frame, err := c.EncodeCommand(cmd, payload)
	if err != nil {
		return err
	}
	return SendAll(w, frame)
}

// WriteData encodes a data packet and sends all of it to w.
func (c *Codec) WriteData(w io.Writer, payload string) error {
	frame, err := c.EncodeData(payload)
	if err != nil {
		return err
	}
	return SendAll(w, frame)
}
