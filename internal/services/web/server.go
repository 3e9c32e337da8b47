package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/louisbranch/llmrag/internal/platform/timeouts"
	"github.com/louisbranch/llmrag/internal/services/web/platform/httpx"
	"github.com/louisbranch/llmrag/internal/services/web/platform/observability"
	"github.com/louisbranch/llmrag/internal/services/web/platform/pagerender"
	"github.com/louisbranch/llmrag/internal/services/web/templates"
)

// Config defines the inputs for the web server.
type Config struct {
	HTTPAddr string
	// Service answers API requests. When nil, API routes report 503 and the
	// landing page is still served.
	Service CourseService
	// Logger receives request logs. Defaults to the standard logger.
	Logger *log.Logger
	// OnClose releases resources owned alongside the server, such as the
	// vector store.
	OnClose func() error
}

// Server hosts the web HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	onClose    func() error
}

// NewHandler builds the routed handler with the standard middleware stack.
func NewHandler(config Config) http.Handler {
	mux := http.NewServeMux()
	api := &apiHandler{service: config.Service}

	mux.Handle("/{$}", httpx.Chain(http.HandlerFunc(handleLanding), httpx.RequireMethods(http.MethodGet, http.MethodHead)))
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/api", httpx.Chain(http.HandlerFunc(api.handleWelcome), httpx.RequireMethods(http.MethodGet, http.MethodHead)))
	mux.Handle("/api/query", httpx.Chain(http.HandlerFunc(api.handleQuery), httpx.RequireMethods(http.MethodPost)))
	mux.Handle("/api/documents", httpx.Chain(http.HandlerFunc(api.handleAddDocument), httpx.RequireMethods(http.MethodPost)))
	mux.Handle("/api/documents/count", httpx.Chain(http.HandlerFunc(api.handleCount), httpx.RequireMethods(http.MethodGet)))
	mux.Handle("/healthz", httpx.Chain(http.HandlerFunc(handleHealth), httpx.RequireMethods(http.MethodGet, http.MethodHead)))

	return httpx.Chain(mux,
		httpx.RequestID(),
		observability.RequestLogger(config.Logger),
		httpx.RecoverPanic(),
	)
}

func handleLanding(w http.ResponseWriter, r *http.Request) {
	pagerender.WritePage(w, r, http.StatusOK, templates.LandingPage())
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteText(w, http.StatusOK, "ok")
}

// NewServer builds a configured web server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(config),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return &Server{
		httpAddr:   httpAddr,
		httpServer: httpServer,
		onClose:    config.OnClose,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("web listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases resources registered with the server.
func (s *Server) Close() {
	if s == nil || s.onClose == nil {
		return
	}
	if err := s.onClose(); err != nil {
		log.Printf("close web resources: %v", err)
	}
}
