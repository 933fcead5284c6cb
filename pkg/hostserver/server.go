// Package hostserver exposes a command executor over the host wire
// protocol: newline-delimited JSON on TCP, or one JSON message per frame on
// a WebSocket.
package hostserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/gorilla/websocket"
)

// MaxLineBytes bounds a single TCP request line.
const MaxLineBytes = 8 << 20

// Executor runs one host command.
type Executor interface {
	Execute(ctx context.Context, req protocol.Request) (any, error)
}

// Server dispatches wire requests to an Executor.
type Server struct {
	exec    Executor
	log     *slog.Logger
	timeout time.Duration

	upgrader websocket.Upgrader
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTimeout bounds the execution of each request. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New returns a server for exec.
func New(exec Executor, opts ...Option) *Server {
	s := &Server{exec: exec, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handle decodes one raw request and returns the response to send back.
// It never fails: decoding and execution errors become error responses.
func (s *Server) Handle(ctx context.Context, raw []byte) *protocol.Response {
	var req protocol.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return protocol.Failure(protocol.Invalidf("malformed request: %v", err))
	}
	if req.Type == "" {
		return protocol.Failure(protocol.Invalidf("request has no type"))
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.exec.Execute(ctx, req)
	if err != nil {
		s.log.Info("request failed", "type", req.Type, "kind", protocol.KindOf(err), "error", err, "elapsed", time.Since(start))
		return protocol.Failure(err)
	}
	resp, err := protocol.Success(result)
	if err != nil {
		s.log.Error("encode result", "type", req.Type, "error", err)
		return protocol.Failure(protocol.HostErrorf("%s: %v", req.Type, err))
	}
	s.log.Debug("request done", "type", req.Type, "elapsed", time.Since(start))
	return resp
}

// ServeTCP accepts connections on ln until ctx is canceled or ln fails.
// Each connection is served on its own goroutine, one request at a time.
func (s *Server) ServeTCP(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	s.log.Info("host listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	peer := conn.RemoteAddr().String()
	s.log.Debug("client connected", "peer", peer)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	enc := json.NewEncoder(conn)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := enc.Encode(s.Handle(ctx, line)); err != nil {
			s.log.Warn("write response", "peer", peer, "error", err)
			return
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		s.log.Warn("read request", "peer", peer, "error", err)
	}
	s.log.Debug("client disconnected", "peer", peer)
}

// ServeHTTP upgrades the request to a WebSocket and serves one request per
// text message until the peer closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()
	peer := conn.RemoteAddr().String()
	s.log.Debug("websocket connected", "peer", peer)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read", "peer", peer, "error", err)
			}
			return
		}
		if err := conn.WriteJSON(s.Handle(r.Context(), msg)); err != nil {
			s.log.Warn("websocket write", "peer", peer, "error", err)
			return
		}
	}
}
