// Package coursectl implements the course maintenance CLI.
package coursectl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	platformcmd "github.com/louisbranch/llmrag/internal/platform/cmd"
	"github.com/louisbranch/llmrag/internal/platform/config"
	"github.com/louisbranch/llmrag/internal/services/rag/app"
	"github.com/louisbranch/llmrag/internal/services/rag/corpus"
	"github.com/louisbranch/llmrag/internal/services/web/platform/pagerender"
	"github.com/louisbranch/llmrag/internal/services/web/templates"
	"github.com/louisbranch/llmrag/internal/tools/notebook"
)

// Config holds coursectl configuration loaded from the environment.
type Config struct {
	RAG app.Config
}

// ParseConfig loads environment defaults. Flags are applied by the command
// tree.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the command tree against args.
func Run(ctx context.Context, cfg Config, args []string, stdout, stderr io.Writer) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceCourseCtl, func(ctx context.Context) error {
		root := NewRootCommand(&cfg)
		root.SetArgs(args)
		root.SetOut(stdout)
		root.SetErr(stderr)
		return root.ExecuteContext(ctx)
	})
}

// NewRootCommand builds the coursectl command tree. Persistent flags write
// into cfg.
func NewRootCommand(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "coursectl",
		Short:        "Manage the LLM-RAG course corpus",
		SilenceUsage: true,
	}

	ragFlags := flag.NewFlagSet("rag", flag.ContinueOnError)
	app.RegisterFlags(ragFlags, &cfg.RAG)
	root.PersistentFlags().AddGoFlagSet(ragFlags)

	root.AddCommand(
		ingestCmd(cfg),
		queryCmd(cfg),
		md2ipynbCmd(),
		renderCmd(),
	)
	return root
}

func ingestCmd(cfg *Config) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index every lesson of a course manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath := strings.TrimSpace(cfg.RAG.Manifest)
			if manifestPath == "" {
				return errors.New("--manifest is required")
			}
			manifest, err := corpus.Load(manifestPath)
			if err != nil {
				return err
			}

			// Build without seeding; this command owns ingestion.
			buildCfg := cfg.RAG
			buildCfg.Manifest = ""
			service, closeStore, err := app.Build(cmd.Context(), buildCfg)
			if err != nil {
				return err
			}
			defer closeStore()

			indexed, err := corpus.Ingest(cmd.Context(), service, manifest, concurrency)
			if err != nil {
				return err
			}
			total, err := service.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d lessons from %q (%d documents in store)\n", indexed, manifest.Course, total)
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", cfg.RAG.IngestConcurrency, "maximum lessons embedded at once")
	return cmd
}

func queryCmd(cfg *Config) *cobra.Command {
	var showContext bool
	cmd := &cobra.Command{
		Use:   "query QUESTION",
		Short: "Answer a question from the indexed course material",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closeStore, err := app.Build(cmd.Context(), cfg.RAG)
			if err != nil {
				return err
			}
			defer closeStore()

			answer, err := service.ProcessQuery(cmd.Context(), strings.Join(args, " "), cfg.RAG.TopK)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, answer.Response)
			if showContext {
				for i, match := range answer.Context {
					fmt.Fprintf(out, "[%d] score=%.4f source=%s\n    %s\n", i+1, match.Score, match.Document.Source, match.Document.Text)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showContext, "context", false, "print the retrieved documents")
	return cmd
}

func md2ipynbCmd() *cobra.Command {
	var (
		root   string
		phases []string
	)
	cmd := &cobra.Command{
		Use:   "md2ipynb",
		Short: "Rewrite markdown drafts saved as .ipynb into real notebooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(root) == "" {
				return errors.New("--root is required")
			}
			results, err := notebook.ConvertDir(root, phases)
			out := cmd.OutOrStdout()
			failed := 0
			for _, result := range results {
				if result.Err != nil {
					failed++
					fmt.Fprintf(out, "failed %s: %v\n", result.Path, result.Err)
					continue
				}
				fmt.Fprintf(out, "converted %s\n", result.Path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "converted %d of %d notebooks\n", len(results)-failed, len(results))
			if failed > 0 {
				return fmt.Errorf("%d notebooks failed to convert", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "notebooks", "notebooks root directory")
	cmd.Flags().StringSliceVar(&phases, "phase", notebook.DefaultPhases, "phase directories under root")
	return cmd
}

func renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Write the landing page HTML to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := pagerender.Render(cmd.Context(), templates.LandingPage())
			if err != nil {
				return fmt.Errorf("render landing page: %w", err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), page+"\n")
			return err
		},
	}
}
