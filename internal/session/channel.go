package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"

	"github.com/AtDexters-Lab/nexus-ftp/internal/config"
)

// listenData binds the requester's data port. It has to be listening before
// the command that makes the responder dial back is written.
func listenData(cfg *config.Config) (net.Listener, error) {
	ln, err := net.Listen("tcp", cfg.ClientDataListenAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to listen for data channel on %s: %w", cfg.ClientDataListenAddress(), err)
	}
	return ln, nil
}

// acceptData waits for the responder's dial-back. Connections from any host
// other than peer are closed and the wait continues.
func acceptData(ctx context.Context, ln net.Listener, peer net.IP) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to accept data channel: %w", err)
		}
		if ip := hostIP(conn.RemoteAddr()); peer != nil && !ip.Equal(peer) {
			log.Printf("WARN: Rejecting data channel from %s; expected %s", conn.RemoteAddr(), peer)
			conn.Close()
			continue
		}
		return conn, nil
	}
}

// dialData connects from the responder's configured source port back to the
// requester's data port on the host at the far end of the control connection.
func dialData(ctx context.Context, cfg *config.Config, peer net.Addr) (net.Conn, error) {
	ip := hostIP(peer)
	if ip == nil {
		return nil, fmt.Errorf("cannot derive data channel host from %s", peer)
	}
	d := net.Dialer{Control: reuseAddrControl}
	if cfg.ServerDataPort != 0 {
		d.LocalAddr = &net.TCPAddr{Port: cfg.ServerDataPort}
	}
	addr := net.JoinHostPort(ip.String(), strconv.Itoa(cfg.ClientDataPort))
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open data channel to %s: %w", addr, err)
	}
	return conn, nil
}

// drainAndClose waits for the peer to close its side before closing ours, so
// the requester performs the active close on every data channel.
func drainAndClose(conn net.Conn) error {
	_, err := io.Copy(io.Discard, conn)
	if cerr := conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func hostIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP
	case nil:
		return nil
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return nil
		}
		return net.ParseIP(host)
	}
}
