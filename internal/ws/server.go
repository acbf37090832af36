package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/camsentry/backend/internal/camera"
	"github.com/camsentry/backend/internal/config"
	"github.com/camsentry/backend/internal/diag"
)

// StatusFunc reports the most recently classified camera status.
type StatusFunc func() camera.Status

type Server struct {
	cfg            *config.Config
	broadcaster    *Broadcaster
	status         StatusFunc
	viewer         http.Handler
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

// NewServer wires the HTTP surface. viewer serves the embedded status
// page at the root path and may be nil.
func NewServer(cfg *config.Config, broadcaster *Broadcaster, status StatusFunc, viewer http.Handler) *Server {
	s := &Server{
		cfg:            cfg,
		broadcaster:    broadcaster,
		status:         status,
		viewer:         viewer,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc(s.cfg.Server.WSPath, s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)

	if s.viewer != nil {
		mux.Handle("/", s.viewer)
	}
}

// handleWS upgrades the connection, registers it as a session, then
// sits in a read loop whose only job is to notice peer closure. The
// service never interprets inbound payloads.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	c, err := s.broadcaster.AddClient(conn)
	if err != nil {
		log.Printf("ws client rejected: %v", err)
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "connection limit"), deadline)
		conn.Close()
		return
	}
	log.Printf("ws client connected: %s", r.RemoteAddr)

	defer func() {
		s.broadcaster.RemoveClient(c)
		log.Printf("ws client disconnected: %s", r.RemoteAddr)
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// handleStatus reports the current classification plus host
// diagnostics. Purely informational; the WebSocket stream is the
// contract.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status       camera.Status     `json:"status"`
		Clients      int               `json:"clients"`
		PollInterval string            `json:"pollInterval"`
		Host         diag.HostSnapshot `json:"host"`
		Timestamp    time.Time         `json:"timestamp"`
	}{
		Status:       s.status(),
		Clients:      s.broadcaster.ClientCount(),
		PollInterval: s.cfg.Detector.PollInterval.String(),
		Host:         diag.Collect(r.Context()),
		Timestamp:    time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("status response encode error: %v", err)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}
	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

// Run serves mux until ctx is cancelled, then shuts down: stop
// accepting, drain HTTP with a bounded timeout, close all live
// sessions. Close failures during shutdown are swallowed.
func (s *Server) Run(ctx context.Context, mux *http.ServeMux) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)

	// Shutdown does not touch hijacked connections; close the live
	// WebSocket sessions ourselves.
	s.broadcaster.Shutdown()
	return err
}
