package mcp

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.RAG.Embedder != "hash" {
		t.Fatalf("expected default embedder hash, got %q", cfg.RAG.Embedder)
	}
	if cfg.RAG.TopK != 5 {
		t.Fatalf("expected default top-k 5, got %d", cfg.RAG.TopK)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("LLMRAG_STORE", "sqlite")
	t.Setenv("LLMRAG_DB_PATH", "env.db")

	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db-path", "flag.db", "-manifest", "course.yaml"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.RAG.Store != "sqlite" {
		t.Fatalf("expected env store, got %q", cfg.RAG.Store)
	}
	if cfg.RAG.DBPath != "flag.db" {
		t.Fatalf("expected flag db path, got %q", cfg.RAG.DBPath)
	}
	if cfg.RAG.Manifest != "course.yaml" {
		t.Fatalf("expected flag manifest, got %q", cfg.RAG.Manifest)
	}
}

func TestParseConfigRejectsUnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(new(discard))
	if _, err := ParseConfig(fs, []string{"-transport", "http"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
