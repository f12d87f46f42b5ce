package protocol

import "errors"

var (
	// ErrMalformedLength is returned when a length field is not ASCII decimal.
	ErrMalformedLength = errors.New("malformed length field")
	// ErrPayloadTooLarge is returned when a payload does not fit the length field.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrConnectionLost is returned when the peer stops accepting or delivering
	// bytes before an operation completes.
	ErrConnectionLost = errors.New("connection lost")
	// ErrStreamClosed is returned when the peer closes before a full packet arrives.
	// It always accompanies ErrConnectionLost.
	ErrStreamClosed = errors.New("stream closed")
	// ErrIncompleteTransfer is returned when a file body is shorter than its
	// declared length.
	ErrIncompleteTransfer = errors.New("incomplete transfer")
	// ErrStorage wraps local file-system faults.
	ErrStorage = errors.New("storage error")
	// ErrUnknownCommand is returned for a command byte outside the known set.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidFilename is returned for names that are empty or could escape
	// the shared directory.
	ErrInvalidFilename = errors.New("invalid filename")
)
