// Package hostconn is the client side of the host wire protocol. A Conn
// forwards one command at a time to a geometry host over TCP or WebSocket.
package hostconn

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/gorilla/websocket"
)

// DefaultTimeout bounds one request when the caller's context has no
// earlier deadline.
const DefaultTimeout = 30 * time.Second

// Sender forwards a command to the host and returns its result.
type Sender interface {
	Send(ctx context.Context, cmd string, params map[string]any) (json.RawMessage, error)
}

// transport is one open connection.
type transport interface {
	roundTrip(req protocol.Request, deadline time.Time) (*protocol.Response, error)
	close() error
}

// Conn is a lazily dialed connection to a host. Requests are serialized;
// a transport failure drops the connection and the next request redials.
type Conn struct {
	target  *url.URL
	timeout time.Duration
	log     *slog.Logger

	mu sync.Mutex
	t  transport
}

// Option configures a Conn.
type Option func(*Conn)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Conn) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Conn) {
		if l != nil {
			c.log = l
		}
	}
}

// New validates address (tcp://host:port, ws://host:port/path or wss://)
// and returns an undialed Conn.
func New(address string, opts ...Option) (*Conn, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("hostconn: parse address %q: %w", address, err)
	}
	switch u.Scheme {
	case "tcp", "ws", "wss":
	default:
		return nil, fmt.Errorf("hostconn: unsupported scheme %q in %q, want tcp, ws or wss", u.Scheme, address)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("hostconn: address %q has no host", address)
	}
	c := &Conn{target: u, timeout: DefaultTimeout, log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Address returns the host address.
func (c *Conn) Address() string {
	return c.target.String()
}

// Send forwards cmd and returns the raw result. Host errors come back as
// *protocol.Error with the host's kind and message; transport failures are
// reported as HostError.
func (c *Conn) Send(ctx context.Context, cmd string, params map[string]any) (json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, protocol.HostErrorf("%s: %v", cmd, err)
	}
	if c.t == nil {
		t, err := c.dial(ctx, deadline)
		if err != nil {
			return nil, protocol.HostErrorf("connect to host %s: %v", c.target.Host, err)
		}
		c.t = t
	}

	start := time.Now()
	resp, err := c.t.roundTrip(protocol.Request{Type: cmd, Params: params}, deadline)
	if err != nil {
		c.t.close()
		c.t = nil
		return nil, protocol.HostErrorf("%s: host connection: %v", cmd, err)
	}
	c.log.Debug("host request", "type", cmd, "status", resp.Status, "elapsed", time.Since(start))
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Close closes the underlying connection, if any.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.t == nil {
		return nil
	}
	err := c.t.close()
	c.t = nil
	return err
}

func (c *Conn) dial(ctx context.Context, deadline time.Time) (transport, error) {
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	c.log.Debug("dialing host", "address", c.target.String())

	if c.target.Scheme == "tcp" {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", c.target.Host)
		if err != nil {
			return nil, err
		}
		return &tcpTransport{conn: conn, rd: bufio.NewReader(conn)}, nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.target.String(), nil)
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

type tcpTransport struct {
	conn net.Conn
	rd   *bufio.Reader
}

func (t *tcpTransport) roundTrip(req protocol.Request, deadline time.Time) (*protocol.Response, error) {
	if err := t.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, err := t.conn.Write(append(raw, '\n')); err != nil {
		return nil, err
	}
	line, err := t.rd.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	var resp protocol.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

func (t *tcpTransport) close() error {
	return t.conn.Close()
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) roundTrip(req protocol.Request, deadline time.Time) (*protocol.Response, error) {
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := t.conn.WriteJSON(req); err != nil {
		return nil, err
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	var resp protocol.Response
	if err := t.conn.ReadJSON(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *wsTransport) close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return t.conn.Close()
}
