// Package web parses web command flags and launches the course site.
package web

import (
	"context"
	"flag"
	"fmt"

	platformcmd "github.com/louisbranch/llmrag/internal/platform/cmd"
	"github.com/louisbranch/llmrag/internal/platform/config"
	"github.com/louisbranch/llmrag/internal/services/rag/app"
	"github.com/louisbranch/llmrag/internal/services/web"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr string `env:"LLMRAG_WEB_HTTP_ADDR" envDefault:"localhost:8080"`
	RAG      app.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	app.RegisterFlags(fs, &cfg.RAG)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the web server.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceWeb, func(ctx context.Context) error {
		service, closeStore, err := app.Build(ctx, cfg.RAG)
		if err != nil {
			return fmt.Errorf("init rag service: %w", err)
		}
		server, err := web.NewServer(web.Config{
			HTTPAddr: cfg.HTTPAddr,
			Service:  service,
			OnClose:  closeStore,
		})
		if err != nil {
			_ = closeStore()
			return fmt.Errorf("init web server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}
