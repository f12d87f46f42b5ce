package protocol

import "fmt"

// Command is the operation code carried in the first byte of a command packet.
type Command byte

const (
	// CmdGetAll asks the responder for its shareable file names.
	CmdGetAll Command = '0'
	// CmdGet asks the responder to stream one file back.
	CmdGet Command = '1'
	// CmdSend announces that the requester will stream one file to the responder.
	CmdSend Command = '2'
)

// Valid reports whether c is one of the known command codes.
func (c Command) Valid() bool {
	switch c {
	case CmdGetAll, CmdGet, CmdSend:
		return true
	default:
		return false
	}
}

func (c Command) String() string {
	switch c {
	case CmdGetAll:
		return "GETALL"
	case CmdGet:
		return "GET"
	case CmdSend:
		return "SEND"
	default:
		return fmt.Sprintf("UNKNOWN(%q)", byte(c))
	}
}

// Status is the outcome token sent as the first data packet answering a GET.
type Status string

const (
	StatusFound    Status = "/200/"
	StatusNotFound Status = "/404/"
)

// ParseStatus maps a data packet payload to a Status.
func ParseStatus(payload string) (Status, error) {
	switch s := Status(payload); s {
	case StatusFound, StatusNotFound:
		return s, nil
	default:
		return "", fmt.Errorf("unexpected status token %q", payload)
	}
}

// ListSeparator joins file names in a GETALL response.
const ListSeparator = "  "

// DefaultLengthWidth is the number of decimal digits in the packet length
// field. Peers must agree on it; three digits is wire format version 1.
const DefaultLengthWidth = 3
