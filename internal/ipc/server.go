package ipc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Server wraps an HTTP server with engine-specific routing.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server that binds to the given address.
func NewServer(h *Handler, listenAddr string) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/log", h.ListLog)
	mux.HandleFunc("GET /api/v1/tally", h.ListTally)
	mux.HandleFunc("POST /api/v1/intent", h.PostIntent)

	srv := &http.Server{
		Addr:    listenAddr,
		Handler: mux,
	}

	return &Server{httpServer: srv}
}

// Start begins listening for HTTP connections. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// FormatListenURL renders a listen address as a browsable URL.
func FormatListenURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return fmt.Sprintf("http://127.0.0.1%s", addr)
	}
	return fmt.Sprintf("http://%s", addr)
}
