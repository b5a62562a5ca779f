// Package websocket serves collaboration broadcasts to WebSocket subscribers.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/framereview/annotations/pkg/streaming"
	ws "github.com/gorilla/websocket"
)

// Server implements broadcast.Publisher by fanning messages out to every
// connected subscriber. A subscriber that connects late first receives the
// last annotation_edited message so it knows what is being edited.
type Server struct {
	upgrader ws.Upgrader
	logger   *slog.Logger

	mu         sync.Mutex
	clients    map[*connection]struct{}
	lastEdited []byte

	httpServer *http.Server
}

// New creates a broadcast server. It does not listen until Start.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		upgrader: ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		logger:   logger,
		clients:  make(map[*connection]struct{}),
	}
}

// ServeHTTP upgrades the request and subscribes the client.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	c := newConnection(conn, s.logger)

	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.lastEdited != nil {
		c.send(s.lastEdited)
	}
	s.mu.Unlock()
	s.logger.Info("Collaborator subscribed", "remote", conn.RemoteAddr().String())

	go c.writeLoop()
	go func() {
		c.readLoop()
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		s.logger.Info("Collaborator left", "remote", conn.RemoteAddr().String())
	}()
}

// Publish marshals the payload into an Envelope and pushes it to every
// subscriber's write loop (fire-and-forget).
func (s *Server) Publish(msgType string, payload any) {
	data, err := streaming.Marshal(msgType, payload)
	if err != nil {
		s.logger.Error("Failed to encode broadcast", "type", msgType, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if msgType == streaming.TypeAnnotationEdited {
		s.lastEdited = data
	}
	for c := range s.clients {
		c.send(data)
	}
}

// Clients returns the number of connected subscribers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Start listens on addr and serves subscribers on "/" in the background.
// It returns the bound address.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("broadcast listen on %s: %w", addr, err)
	}
	s.httpServer = &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Broadcast server stopped", "error", err)
		}
	}()
	s.logger.Info("Broadcast server listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}

// Close disconnects every subscriber and stops the listener.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.clients {
		c.close()
	}
	s.clients = make(map[*connection]struct{})
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
