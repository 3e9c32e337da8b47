// Package mcp parses MCP command flags and serves the course tools on stdio.
package mcp

import (
	"context"
	"flag"
	"fmt"

	platformcmd "github.com/louisbranch/llmrag/internal/platform/cmd"
	"github.com/louisbranch/llmrag/internal/platform/config"
	mcpservice "github.com/louisbranch/llmrag/internal/services/mcp/service"
	"github.com/louisbranch/llmrag/internal/services/rag/app"
)

// Config holds MCP command configuration.
type Config struct {
	RAG app.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	app.RegisterFlags(fs, &cfg.RAG)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP server on stdio.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceMCP, func(ctx context.Context) error {
		service, closeStore, err := app.Build(ctx, cfg.RAG)
		if err != nil {
			return fmt.Errorf("init rag service: %w", err)
		}
		server, err := mcpservice.New(service, closeStore)
		if err != nil {
			_ = closeStore()
			return fmt.Errorf("init mcp server: %w", err)
		}
		return server.Serve(ctx)
	})
}
