package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/llmrag/internal/platform/branding"
	"github.com/louisbranch/llmrag/internal/services/mcp/domain"
)

const serverVersion = "0.1.0"

var serverName = branding.AppName + " MCP"

// Server wraps the MCP server and the resources it owns.
type Server struct {
	mcpServer *mcp.Server
	onClose   func() error
}

// New registers the course tools against service. onClose, when set, runs
// once serving stops.
func New(service domain.CourseService, onClose func() error) (*Server, error) {
	if service == nil {
		return nil, errors.New("course service is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(mcpServer, domain.CourseQueryTool(), domain.CourseQueryHandler(service))
	mcp.AddTool(mcpServer, domain.CourseSearchTool(), domain.CourseSearchHandler(service))
	return &Server{mcpServer: mcpServer, onClose: onClose}, nil
}

// Serve runs the server over stdio until the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Close releases resources owned by the server.
func (s *Server) Close() error {
	if s == nil || s.onClose == nil {
		return nil
	}
	closeFn := s.onClose
	s.onClose = nil
	return closeFn()
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close course store: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close course store: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
