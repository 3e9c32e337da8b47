// Package main runs the course maintenance CLI.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/llmrag/internal/cmd/coursectl"
	platformcmd "github.com/louisbranch/llmrag/internal/platform/cmd"
	"github.com/louisbranch/llmrag/internal/platform/config"
)

func main() {
	cfg, err := coursectl.ParseConfig()
	if err != nil {
		config.Exitf("parse config: %v", err)
	}
	log.SetPrefix(platformcmd.LogPrefix(platformcmd.ServiceCourseCtl))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// cobra has already reported the error.
	if err := coursectl.Run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}
