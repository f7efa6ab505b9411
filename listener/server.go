// Package listener accepts remote peers over websocket and routes their
// messages to a diff.Applier.
//
// Each peer gets one reader goroutine; messages from one peer are applied
// in arrival order. A message is applied fully before the next one from
// the same peer is read. When a peer disconnects, for any reason, the
// scene is cleared.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gogpu/ggremote"
	"github.com/gogpu/ggremote/diff"
)

// DefaultAddress is the address the listener binds when none is given.
const DefaultAddress = "127.0.0.1:6767"

// DefaultReadLimit is the largest message accepted from a peer.
const DefaultReadLimit = 16 << 20

const shutdownTimeout = 5 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithReadLimit sets the largest message, in bytes, accepted from a peer.
// A peer that sends more is disconnected.
func WithReadLimit(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.readLimit = n
		}
	}
}

// WithPath sets the HTTP path peers connect to. The default is "/".
func WithPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.path = path
		}
	}
}

// Server is a websocket endpoint feeding a diff.Applier.
// It implements http.Handler.
type Server struct {
	applier   *diff.Applier
	upgrader  websocket.Upgrader
	readLimit int64
	path      string

	mu    sync.Mutex
	peers map[string]*websocket.Conn

	received atomic.Uint64
	failed   atomic.Uint64
}

// New creates a Server applying peer messages through applier.
func New(applier *diff.Applier, opts ...Option) *Server {
	s := &Server{
		applier:   applier,
		readLimit: DefaultReadLimit,
		path:      "/",
		peers:     make(map[string]*websocket.Conn),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 1024,
		// Peers are local tools, not browsers on arbitrary origins.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return s
}

// ServeHTTP upgrades the request to a websocket and serves the peer until
// it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != s.path {
		http.NotFound(w, r)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		ggremote.Logger().Warn("listener: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	s.serve(conn)
}

func (s *Server) serve(conn *websocket.Conn) {
	id := uuid.NewString()
	log := ggremote.Logger().With(slog.String("peer", id), slog.String("remote", conn.RemoteAddr().String()))

	conn.SetReadLimit(s.readLimit)
	s.addPeer(id, conn)
	log.Info("listener: peer connected")

	defer func() {
		s.removePeer(id)
		_ = conn.Close()
		s.applier.Clear()
		log.Info("listener: peer disconnected, scene cleared")
	}()

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("listener: read ended", "err", err)
			}
			return
		}
		s.received.Add(1)

		if typ != websocket.TextMessage {
			s.failed.Add(1)
			log.Warn("listener: ignoring non-text message",
				"err", fmt.Errorf("%w: message type %d", ggremote.ErrMalformedMessage, typ))
			continue
		}
		if err := s.applier.ApplyBytes(data); err != nil {
			s.failed.Add(1)
			log.Debug("listener: message applied with errors", "err", err)
		}
	}
}

func (s *Server) addPeer(id string, conn *websocket.Conn) {
	s.mu.Lock()
	s.peers[id] = conn
	s.mu.Unlock()
}

func (s *Server) removePeer(id string) {
	s.mu.Lock()
	delete(s.peers, id)
	s.mu.Unlock()
}

// Peers returns the number of connected peers.
func (s *Server) Peers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// Stats is a snapshot of listener counters.
type Stats struct {
	Peers    int
	Received uint64
	// Failed counts messages that were rejected or applied with errors.
	Failed uint64
}

// Stats returns a snapshot of listener counters.
func (s *Server) Stats() Stats {
	return Stats{
		Peers:    s.Peers(),
		Received: s.received.Load(),
		Failed:   s.failed.Load(),
	}
}

// ListenAndServe listens on addr and serves peers until ctx is canceled.
// An empty addr means DefaultAddress. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddress
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listener: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves peers on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()
	ggremote.Logger().Info("listener: accepting peers", "addr", ln.Addr().String(), "path", s.path)

	select {
	case err := <-errc:
		return fmt.Errorf("listener: %w", err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := hs.Shutdown(sctx)
	// Hijacked websocket connections are not tracked by Shutdown.
	s.closePeers()
	if err != nil {
		return fmt.Errorf("listener: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listener: %w", err)
	}
	return nil
}

func (s *Server) closePeers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.peers {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = c.Close()
	}
}
