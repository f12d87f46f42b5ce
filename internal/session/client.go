package session

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/AtDexters-Lab/nexus-ftp/internal/config"
	"github.com/AtDexters-Lab/nexus-ftp/internal/iface"
	"github.com/AtDexters-Lab/nexus-ftp/internal/protocol"
	"github.com/AtDexters-Lab/nexus-ftp/internal/storage"
	"github.com/AtDexters-Lab/nexus-ftp/internal/transfer"
)

// Response is the typed result of one request cycle.
type Response interface {
	Command() protocol.Command
}

// ListResponse answers GETALL.
type ListResponse struct {
	// Raw is the payload exactly as the server sent it.
	Raw   string
	Names []string
}

func (*ListResponse) Command() protocol.Command { return protocol.CmdGetAll }

// GetResponse answers GET. Size is only meaningful when Status is StatusFound.
type GetResponse struct {
	Name   string
	Status protocol.Status
	Size   int64
}

func (*GetResponse) Command() protocol.Command { return protocol.CmdGet }

// SendResponse reports a SEND. Status is StatusNotFound when the local file
// does not exist, in which case nothing was sent.
//
// StatusFound means every byte was handed to the transport, not that the
// server stored it: the protocol has no acknowledgment. Size counts the
// bytes written to the data channel. A server that cannot write the file
// closes the channel early, which surfaces here as ErrConnectionLost.
type SendResponse struct {
	Name   string
	Status protocol.Status
	Size   int64
}

func (*SendResponse) Command() protocol.Command { return protocol.CmdSend }

// Client drives request cycles over one control connection.
type Client struct {
	config *config.Config
	codec  *protocol.Codec
	store  iface.FileStore
	engine *transfer.Engine
	conn   net.Conn
	peer   net.IP
}

// Dial opens the control connection to the server at host.
func Dial(ctx context.Context, cfg *config.Config, store iface.FileStore, host string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.ControlAddress(host))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.ControlAddress(host), err)
	}
	codec := protocol.NewCodec(cfg.LengthFieldWidth)
	return &Client{
		config: cfg,
		codec:  codec,
		store:  store,
		engine: transfer.NewEngine(codec, store, cfg.ChunkSize),
		conn:   conn,
		peer:   hostIP(conn.RemoteAddr()),
	}, nil
}

// SetProgress reports every file transfer to fn, at most once per every.
func (c *Client) SetProgress(fn transfer.ProgressFunc, every time.Duration) {
	c.engine.SetProgress(fn, every)
}

// RemoteAddr is the server end of the control connection.
func (c *Client) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Close closes the control connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// request runs one command cycle: bind the data port, send the command,
// accept the server's dial-back and hand the data channel to fn. The data
// channel is closed from this side first.
func (c *Client) request(ctx context.Context, cmd protocol.Command, payload string, fn func(dc net.Conn) error) error {
	ln, err := listenData(c.config)
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := c.codec.WriteCommand(c.conn, cmd, payload); err != nil {
		return fmt.Errorf("sending %s: %w", cmd, err)
	}

	dc, err := acceptData(ctx, ln, c.peer)
	if err != nil {
		return err
	}
	defer dc.Close()
	stop := context.AfterFunc(ctx, func() { dc.Close() })
	defer stop()

	return fn(dc)
}

// List asks the server for its shareable files.
func (c *Client) List(ctx context.Context) (*ListResponse, error) {
	resp := &ListResponse{}
	err := c.request(ctx, protocol.CmdGetAll, "", func(dc net.Conn) error {
		raw, err := c.codec.DecodeData(dc)
		if err != nil {
			return err
		}
		resp.Raw = raw
		if raw != "" {
			resp.Names = strings.Split(raw, protocol.ListSeparator)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Get fetches name from the server into the local store. An empty name is a
// listing request and yields a *ListResponse.
func (c *Client) Get(ctx context.Context, name string) (Response, error) {
	if name == "" {
		return c.List(ctx)
	}
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	resp := &GetResponse{Name: name}
	err := c.request(ctx, protocol.CmdGet, name, func(dc net.Conn) error {
		token, err := c.codec.DecodeData(dc)
		if err != nil {
			return err
		}
		if resp.Status, err = protocol.ParseStatus(token); err != nil {
			return err
		}
		if resp.Status == protocol.StatusNotFound {
			return nil
		}
		resp.Size, err = c.engine.RecvFile(dc, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Send pushes name from the local store to the server. It returns once the
// last byte is written to the data channel; see SendResponse.
func (c *Client) Send(ctx context.Context, name string) (*SendResponse, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}
	resp := &SendResponse{Name: name, Status: protocol.StatusNotFound}
	ok, err := c.store.Exists(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp, nil
	}

	err = c.request(ctx, protocol.CmdSend, name, func(dc net.Conn) error {
		n, err := c.engine.SendFile(dc, name)
		resp.Size = n
		return err
	})
	if err != nil {
		return nil, err
	}
	resp.Status = protocol.StatusFound
	return resp, nil
}

// LocalFiles lists the client's own shareable files.
func (c *Client) LocalFiles() ([]string, error) {
	return c.store.List()
}
