//go:build unix

package session

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddrControl lets the responder rebind its fixed data source port while
// the previous data channel on it is still closing.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var serr error
	if err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return serr
}
