// Package main is the Tansaku CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/tansaku/internal/cli"
	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/extract"
	"github.com/hyperjump/tansaku/internal/indexer"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/search"
	"github.com/hyperjump/tansaku/internal/server"
	"github.com/hyperjump/tansaku/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

const (
	shutdownTimeout = 10 * time.Second
	httpTimeout     = 30 * time.Second
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	debug      bool

	config *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "tansaku",
		Short: "Product search with autocorrect and autocomplete over interchangeable backends",
		Long: `Tansaku answers a text query with a corrected spelling, autocomplete
suggestions and ranked results. The backend is chosen with SEARCH_ENGINE
(postgres, sqlite, elastic or bleve) and defaults to postgres.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file path (defaults to ./config.yaml when present)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newSeedCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// setup loads .env, the config file and the environment, then builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(resolveConfigPath(a.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.debug {
		cfg.Debug = true
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.config = cfg
	a.logger = logger
	return nil
}

// resolveConfigPath returns path, or ./config.yaml when path is empty and that file
// exists, or "" to run from the environment and defaults only.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	fallback := filepath.Join(cwd, "config.yaml")
	if _, err := os.Stat(fallback); err == nil {
		return fallback
	}
	return ""
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// serve runs the server until ctx is done, then shuts it down gracefully.
func (a *app) serve(ctx context.Context) error {
	engine := search.NewEngine(a.config, a.logger)
	defer func() {
		if err := search.Close(engine); err != nil {
			a.logger.Warn("Failed to close search engine", zap.Error(err))
		}
	}()

	srv := server.NewServer(engine, &a.config.Server, a.logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

type searchOptions struct {
	server string
	output string
}

func newSearchCmd(a *app) *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search [flags] <query>",
		Short: "Search the catalog",
		Long: `Search the catalog. The query is all remaining arguments joined by spaces,
so multi-word queries work with or without quotes.

Examples:
  tansaku search iphone 15
  tansaku search "macbok air" --output json
  tansaku search --server http://localhost:3000 galaxy`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(opts.output)
			if err != nil {
				return err
			}
			res, err := a.search(cmd.Context(), buildSearchQuery(args), opts.server)
			if err != nil {
				return err
			}
			return cli.WriteSearchResult(cmd.OutOrStdout(), res, format)
		},
	}
	cmd.Flags().StringVar(&opts.server, "server", "", "search through a running server at this URL instead of the configured engine")
	cmd.Flags().StringVarP(&opts.output, "output", "o", string(cli.OutputText), "output format: text, compact, json")
	return cmd
}

// buildSearchQuery joins command-line arguments into a single query string.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func (a *app) search(ctx context.Context, raw, serverURL string) (*models.SearchResult, error) {
	if serverURL != "" {
		return cli.SearchViaHTTP(ctx, &http.Client{Timeout: httpTimeout}, serverURL, raw)
	}
	q, err := search.ProcessQuery(raw)
	if err != nil {
		return nil, err
	}
	engine := search.NewEngine(a.config, a.logger)
	defer func() { _ = search.Close(engine) }()
	return engine.Search(ctx, q)
}

type seedOptions struct {
	file   string
	engine string
}

func newSeedCmd(a *app) *cobra.Command {
	var opts seedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the backend's products with a catalog",
		Long: `Replace the backend's products with a catalog. Without --file the built-in
seven-product sample catalog is loaded. Catalog files may be YAML, JSON or Excel
(.xlsx with a header row naming title, description, brand, category and id).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products := indexer.SampleCatalog()
			if opts.file != "" {
				var err error
				products, err = extract.NewExtractor().Extract(opts.file)
				if err != nil {
					return err
				}
			}
			engine := opts.engine
			if engine == "" {
				engine = a.config.Search.Engine
			}
			seeder := indexer.NewSeeder(a.config, indexer.WithLogger(a.logger))
			if err := seeder.Seed(cmd.Context(), engine, products); err != nil {
				return err
			}
			name, _ := config.ResolveEngine(engine)
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products into %s\n", len(products), name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "catalog file (.yaml, .yml, .json, .xlsx)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "backend to seed (defaults to the configured engine)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tansaku version %s\n", version)
		},
	}
}
