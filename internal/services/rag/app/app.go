// Package app assembles the RAG service from configuration.
package app

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/llmrag/internal/platform/timeouts"
	"github.com/louisbranch/llmrag/internal/services/rag"
	"github.com/louisbranch/llmrag/internal/services/rag/corpus"
	"github.com/louisbranch/llmrag/internal/services/rag/embedding"
	"github.com/louisbranch/llmrag/internal/services/rag/languagemodel"
	"github.com/louisbranch/llmrag/internal/services/rag/vectordb"
	"github.com/louisbranch/llmrag/internal/services/rag/vectordb/sqlite"
)

// Backend names accepted by Config.
const (
	StoreMemory         = "memory"
	StoreSQLite         = "sqlite"
	EmbedderHash        = "hash"
	EmbedderOpenAI      = "openai"
	GeneratorExtractive = "extractive"
	GeneratorOpenAI     = "openai"
)

// Config selects and tunes the RAG backends.
type Config struct {
	Store             string `env:"LLMRAG_STORE"              envDefault:"memory"`
	DBPath            string `env:"LLMRAG_DB_PATH"            envDefault:"data/llmrag.db"`
	Embedder          string `env:"LLMRAG_EMBEDDER"           envDefault:"hash"`
	EmbeddingDim      int    `env:"LLMRAG_EMBEDDING_DIM"      envDefault:"768"`
	EmbeddingModel    string `env:"LLMRAG_EMBEDDING_MODEL"    envDefault:"text-embedding-3-small"`
	Generator         string `env:"LLMRAG_GENERATOR"          envDefault:"extractive"`
	GeneratorModel    string `env:"LLMRAG_GENERATOR_MODEL"    envDefault:"gpt-4o-mini"`
	MaxLength         int    `env:"LLMRAG_MAX_LENGTH"         envDefault:"50"`
	OpenAIAPIKey      string `env:"LLMRAG_OPENAI_API_KEY"`
	OpenAIBaseURL     string `env:"LLMRAG_OPENAI_BASE_URL"    envDefault:"https://api.openai.com/v1"`
	TopK              int    `env:"LLMRAG_TOP_K"              envDefault:"5"`
	Manifest          string `env:"LLMRAG_MANIFEST"`
	IngestConcurrency int    `env:"LLMRAG_INGEST_CONCURRENCY" envDefault:"4"`
}

// RegisterFlags binds the flags shared by every command that builds the
// service. Call after loading env so flags override it.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Vector store: memory or sqlite")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite vector store path")
	fs.StringVar(&cfg.Embedder, "embedder", cfg.Embedder, "Embedder: hash or openai")
	fs.IntVar(&cfg.EmbeddingDim, "embedding-dim", cfg.EmbeddingDim, "Embedding dimension")
	fs.StringVar(&cfg.Generator, "generator", cfg.Generator, "Generator: extractive or openai")
	fs.IntVar(&cfg.MaxLength, "max-length", cfg.MaxLength, "Maximum generated words or tokens")
	fs.IntVar(&cfg.TopK, "top-k", cfg.TopK, "Default number of documents retrieved per query")
	fs.StringVar(&cfg.Manifest, "manifest", cfg.Manifest, "Course manifest whose missing lessons are seeded on start")
}

// Build wires the configured backends. The returned close func releases
// the store.
func Build(ctx context.Context, cfg Config) (*rag.Service, func() error, error) {
	httpClient := &http.Client{Timeout: timeouts.ProviderRequest}

	embedder, err := newEmbedder(cfg, httpClient)
	if err != nil {
		return nil, nil, err
	}
	generator, err := newGenerator(cfg, httpClient)
	if err != nil {
		return nil, nil, err
	}
	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	service, err := rag.New(embedder, store, generator, rag.Options{TopK: cfg.TopK, MaxLength: cfg.MaxLength})
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("init rag service: %w", err)
	}
	if err := seed(ctx, service, cfg); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return service, store.Close, nil
}

func newEmbedder(cfg Config, client *http.Client) (embedding.Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Embedder)) {
	case "", EmbedderHash:
		return embedding.NewHashEmbedder(cfg.EmbeddingDim), nil
	case EmbedderOpenAI:
		return embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			BaseURL:    cfg.OpenAIBaseURL,
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.EmbeddingModel,
			Dimension:  cfg.EmbeddingDim,
			HTTPClient: client,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q", cfg.Embedder)
	}
}

func newGenerator(cfg Config, client *http.Client) (languagemodel.Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Generator)) {
	case "", GeneratorExtractive:
		return languagemodel.NewExtractiveGenerator(), nil
	case GeneratorOpenAI:
		return languagemodel.NewOpenAIGenerator(languagemodel.OpenAIConfig{
			BaseURL:    cfg.OpenAIBaseURL,
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.GeneratorModel,
			HTTPClient: client,
		}), nil
	default:
		return nil, fmt.Errorf("unknown generator %q", cfg.Generator)
	}
}

func newStore(cfg Config) (vectordb.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case "", StoreMemory:
		return vectordb.NewMemoryStore(), nil
	case StoreSQLite:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open vector store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// seed indexes every manifest lesson not yet stored. Lessons carry stable
// ids, so a seed interrupted part way is completed on the next start.
func seed(ctx context.Context, service *rag.Service, cfg Config) error {
	if strings.TrimSpace(cfg.Manifest) == "" {
		return nil
	}
	manifest, err := corpus.Load(cfg.Manifest)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	pending, err := corpus.Pending(ctx, service, manifest)
	if err != nil {
		return fmt.Errorf("seed corpus: %w", err)
	}
	if pending.LessonCount() == 0 {
		log.Printf("seed skipped course=%q lessons=%d", manifest.Course, manifest.LessonCount())
		return nil
	}
	indexed, err := corpus.Ingest(ctx, service, pending, cfg.IngestConcurrency)
	if err != nil {
		return fmt.Errorf("seed corpus: %w", err)
	}
	log.Printf("seeded corpus course=%q lessons=%d total=%d", manifest.Course, indexed, manifest.LessonCount())
	return nil
}
