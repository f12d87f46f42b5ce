package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/AtDexters-Lab/nexus-ftp/internal/config"
	"github.com/AtDexters-Lab/nexus-ftp/internal/iface"
	"github.com/AtDexters-Lab/nexus-ftp/internal/protocol"
	"github.com/AtDexters-Lab/nexus-ftp/internal/transfer"
	"golang.org/x/net/netutil"
)

// Server accepts control connections and answers the commands sent over them.
type Server struct {
	config *config.Config
	codec  *protocol.Codec
	store  iface.FileStore
	engine *transfer.Engine

	listener net.Listener
	wg       sync.WaitGroup
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	closed   bool
}

// NewServer creates a new Server that shares the files in store.
func NewServer(cfg *config.Config, store iface.FileStore) *Server {
	codec := protocol.NewCodec(cfg.LengthFieldWidth)
	return &Server{
		config: cfg,
		codec:  codec,
		store:  store,
		engine: transfer.NewEngine(codec, store, cfg.ChunkSize),
		conns:  make(map[net.Conn]struct{}),
	}
}

// Listen binds the control port. At most MaxSessions control connections are
// serviced at once; further clients wait in the accept queue.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.config.ControlListenAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ControlListenAddress(), err)
	}
	if s.config.MaxSessions > 1 {
		log.Printf("WARN: Serving up to %d sessions at once; clients sharing a host will collide on data port %d", s.config.MaxSessions, s.config.ClientDataPort)
	}
	s.mu.Lock()
	s.listener = netutil.LimitListener(ln, s.config.MaxSessions)
	s.mu.Unlock()
	log.Printf("INFO: Server started listening on %s", ln.Addr())
	return nil
}

// Addr is the bound control address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts control connections until the listener is closed or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server is not listening")
	}
	stop := context.AfterFunc(ctx, s.closeAll)
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Println("INFO: Control listener stopped.")
				return nil
			}
			log.Printf("ERROR: Failed to accept control connection: %v", err)
			continue
		}
		if !s.addSession(conn) {
			conn.Close()
			return nil
		}
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			newSession(s, conn).run(ctx)
		}()
	}
}

// ListenAndServe binds the control port and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Stop closes the listener and every open control and data connection, then
// waits for the sessions to unwind.
func (s *Server) Stop() {
	log.Println("INFO: Stopping server...")
	s.closeAll()
	s.wg.Wait()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
}

// track registers conn for shutdown. It reports false once the server is closing.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

// addSession tracks a control connection and counts it toward Stop's wait.
func (s *Server) addSession(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}
