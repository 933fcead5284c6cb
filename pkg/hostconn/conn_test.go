package hostconn_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chazu/cadmcp/pkg/document"
	"github.com/chazu/cadmcp/pkg/hostconn"
	"github.com/chazu/cadmcp/pkg/hostserver"
	"github.com/chazu/cadmcp/pkg/kernel/sdfx"
	"github.com/chazu/cadmcp/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *hostserver.Server {
	doc := document.New(sdfx.New(sdfx.WithMeshCells(16)))
	return hostserver.New(doc)
}

func startTCP(t *testing.T, s *hostserver.Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.ServeTCP(ctx, ln)
	return "tcp://" + ln.Addr().String()
}

func startWS(t *testing.T, s *hostserver.Server) string {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/host"
}

func TestRoundTrip(t *testing.T) {
	transports := map[string]func(*testing.T, *hostserver.Server) string{
		"tcp":       startTCP,
		"websocket": startWS,
	}
	for name, start := range transports {
		t.Run(name, func(t *testing.T) {
			c, err := hostconn.New(start(t, newServer()), hostconn.WithTimeout(5*time.Second))
			require.NoError(t, err)
			defer c.Close()
			ctx := context.Background()

			_, err = c.Send(ctx, "create_object", map[string]any{
				"type":   "BOX",
				"name":   "shelf",
				"params": map[string]any{"width": 4.0, "length": 2.0, "height": 1.0},
			})
			require.NoError(t, err)

			raw, err := c.Send(ctx, "get_object_info", map[string]any{"name": "shelf"})
			require.NoError(t, err)
			var info struct {
				Name     string `json:"name"`
				Geometry struct {
					BBox [][]float64 `json:"bbox"`
				} `json:"geometry"`
			}
			require.NoError(t, json.Unmarshal(raw, &info))
			assert.Equal(t, "shelf", info.Name)
			assert.Equal(t, [][]float64{{-2, -1, -0.5}, {2, 1, 0.5}}, info.Geometry.BBox)

			_, err = c.Send(ctx, "get_object_info", map[string]any{"name": "missing"})
			require.Error(t, err)
			assert.Equal(t, protocol.HostError, protocol.KindOf(err))
			assert.Equal(t, "object with name missing not found", err.Error())
		})
	}
}

func TestPartialFailureFieldsSurvive(t *testing.T) {
	c, err := hostconn.New(startTCP(t, newServer()))
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, err = c.Send(ctx, "create_object", map[string]any{
		"type": "SPHERE", "name": "ball", "params": map[string]any{"radius": 1.0},
	})
	require.NoError(t, err)

	_, err = c.Send(ctx, "modify_objects", map[string]any{"objects": []any{
		map[string]any{"name": "ball", "new_name": "ball2"},
		map[string]any{"name": "ghost", "new_name": "x"},
	}})
	var e *protocol.Error
	require.True(t, errors.As(err, &e), "err = %v", err)
	assert.Equal(t, protocol.PartialBatchFailure, e.Kind)
	assert.Equal(t, 1, e.Completed)
	assert.Equal(t, 1, e.FailedIndex)
}

func TestNewRejectsBadAddress(t *testing.T) {
	for _, addr := range []string{"http://localhost:1", "localhost:1", "tcp://"} {
		_, err := hostconn.New(addr)
		assert.Error(t, err, addr)
	}
}

func TestSendWithoutHost(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	c, err := hostconn.New("tcp://"+addr, hostconn.WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "get_document_info", nil)
	require.Error(t, err)
	assert.Equal(t, protocol.HostError, protocol.KindOf(err))
	assert.Contains(t, err.Error(), "connect to host")
}

func TestRedialAfterDrop(t *testing.T) {
	s := newServer()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.ServeTCP(ctx, ln)
		close(done)
	}()

	c, err := hostconn.New("tcp://"+addr, hostconn.WithTimeout(2*time.Second))
	require.NoError(t, err)
	defer c.Close()
	_, err = c.Send(context.Background(), "get_document_info", nil)
	require.NoError(t, err)

	cancel()
	<-done
	_, err = c.Send(context.Background(), "get_document_info", nil)
	require.Error(t, err, "host is gone")

	ln2, err := net.Listen("tcp", addr)
	if err != nil {
		t.Skipf("port %s not reusable: %v", addr, err)
	}
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	go s.ServeTCP(ctx2, ln2)

	_, err = c.Send(context.Background(), "get_document_info", nil)
	assert.NoError(t, err, "next request redials")
}
