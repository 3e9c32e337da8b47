// Package timeouts defines shared timeout constants used across llmrag
// processes.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// ProviderRequest caps a single call to a hosted model provider.
const ProviderRequest = 30 * time.Second

// Query caps an end-to-end RAG query served over HTTP or MCP.
const Query = 45 * time.Second
