package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/AtDexters-Lab/nexus-ftp/internal/protocol"
	"github.com/google/uuid"
)

// State is where a control session is in its request cycle.
type State int

const (
	StateAwaitingCommand State = iota
	StateChannelOpen
	StateIdle
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingCommand:
		return "AWAITING_COMMAND"
	case StateChannelOpen:
		return "CHANNEL_OPEN"
	case StateIdle:
		return "IDLE"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// errBadTransition reports a state change the request cycle does not allow,
// such as opening a second data channel while one is still open.
var errBadTransition = errors.New("invalid session state transition")

var transitions = map[State][]State{
	StateAwaitingCommand: {StateChannelOpen, StateIdle, StateClosed},
	StateChannelOpen:     {StateIdle, StateClosed},
	StateIdle:            {StateAwaitingCommand, StateClosed},
}

// session owns one control connection and the at most one data channel open
// on its behalf.
type session struct {
	id     uuid.UUID
	server *Server
	conn   net.Conn
	state  State
}

func newSession(s *Server, conn net.Conn) *session {
	return &session{id: uuid.New(), server: s, conn: conn}
}

// transition moves the session to next if the request cycle allows it.
func (ss *session) transition(next State) error {
	for _, allowed := range transitions[ss.state] {
		if allowed == next {
			log.Printf("DEBUG: [%s] %s -> %s", ss.id, ss.state, next)
			ss.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", errBadTransition, ss.state, next)
}

// run services commands until the peer disconnects or the control stream
// can no longer be trusted.
func (ss *session) run(ctx context.Context) {
	log.Printf("INFO: [%s] New client %s", ss.id, ss.conn.RemoteAddr())
	defer func() {
		ss.conn.Close()
		_ = ss.transition(StateClosed)
		log.Printf("INFO: [%s] Session closed for %s", ss.id, ss.conn.RemoteAddr())
	}()

	codec := ss.server.codec
	for {
		cmd, payload, err := codec.DecodeCommand(ss.conn)
		if err != nil {
			switch {
			case errors.Is(err, protocol.ErrUnknownCommand):
				log.Printf("WARN: [%s] Ignoring packet: %v", ss.id, err)
				continue
			case errors.Is(err, protocol.ErrStreamClosed):
				log.Printf("INFO: [%s] Client disconnected: %v", ss.id, err)
			default:
				log.Printf("ERROR: [%s] Control stream fault, ending session: %v", ss.id, err)
			}
			return
		}

		// An empty GET is a listing request, never a lookup of "".
		if cmd == protocol.CmdGet && payload == "" {
			cmd = protocol.CmdGetAll
		}
		log.Printf("INFO: [%s] Client %s requested %s %s", ss.id, hostIP(ss.conn.RemoteAddr()), cmd, payload)

		if err := ss.dispatch(ctx, cmd, payload); err != nil {
			log.Printf("ERROR: [%s] %s %q aborted: %v", ss.id, cmd, payload, err)
		}
		if err := ss.transition(StateIdle); err != nil {
			log.Printf("ERROR: [%s] %v", ss.id, err)
			return
		}
		if err := ss.transition(StateAwaitingCommand); err != nil {
			log.Printf("ERROR: [%s] %v", ss.id, err)
			return
		}
	}
}

// dispatch opens the data channel for one command, answers on it and tears
// it down before returning.
func (ss *session) dispatch(ctx context.Context, cmd protocol.Command, payload string) (err error) {
	dc, err := dialData(ctx, ss.server.config, ss.conn.RemoteAddr())
	if err != nil {
		return err
	}
	if !ss.server.track(dc) {
		dc.Close()
		return errors.New("server is shutting down")
	}
	if err := ss.transition(StateChannelOpen); err != nil {
		ss.server.untrack(dc)
		dc.Close()
		return err
	}
	defer func() {
		ss.server.untrack(dc)
		if err != nil {
			dc.Close()
			return
		}
		err = drainAndClose(dc)
	}()

	switch cmd {
	case protocol.CmdGetAll:
		return ss.handleGetAll(dc)
	case protocol.CmdGet:
		return ss.handleGet(dc, payload)
	case protocol.CmdSend:
		return ss.handleSend(dc, payload)
	default:
		return fmt.Errorf("%w: %s", protocol.ErrUnknownCommand, cmd)
	}
}

func (ss *session) handleGetAll(dc net.Conn) error {
	names, err := ss.server.store.List()
	if err != nil {
		return err
	}
	return ss.server.codec.WriteData(dc, strings.Join(names, protocol.ListSeparator))
}

func (ss *session) handleGet(dc net.Conn, name string) error {
	codec := ss.server.codec
	found, err := ss.server.store.Exists(name)
	if err != nil {
		log.Printf("WARN: [%s] Treating %q as not found: %v", ss.id, name, err)
		found = false
	}
	if !found {
		return codec.WriteData(dc, string(protocol.StatusNotFound))
	}
	if err := codec.WriteData(dc, string(protocol.StatusFound)); err != nil {
		return err
	}
	n, err := ss.server.engine.SendFile(dc, name)
	if err != nil {
		return err
	}
	log.Printf("INFO: [%s] Sent %s (%d bytes)", ss.id, name, n)
	return nil
}

func (ss *session) handleSend(dc net.Conn, name string) error {
	n, err := ss.server.engine.RecvFile(dc, name)
	if err != nil {
		return err
	}
	log.Printf("INFO: [%s] Received %s (%d bytes)", ss.id, name, n)
	return nil
}
