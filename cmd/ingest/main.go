// Command ingest loads documents from disk into the knowledge base.
//
//	ingest --path ./docs --recursive --source neuro-textbook
//
// With the memory index backend the chunks live only as long as this
// process, so bulk loading is only useful against index.backend=redis.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"neurabuddy/internal/app"
	"neurabuddy/internal/config"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/service"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var (
		path      string
		source    string
		recursive bool
		dryRun    bool
	)
	pflag.StringVarP(&path, "path", "p", "", "file or directory to ingest")
	pflag.StringVarP(&source, "source", "s", "", "source label stored with every chunk (defaults to the file name)")
	pflag.BoolVarP(&recursive, "recursive", "r", false, "descend into subdirectories")
	pflag.BoolVar(&dryRun, "dry-run", false, "list the files that would be ingested")
	pflag.Parse()

	if path == "" {
		fmt.Fprintln(os.Stderr, "ingest: --path is required")
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer logger.Sync()

	files, skipped, err := collectFiles(path, recursive)
	if err != nil {
		log.Fatal("Failed to list documents", zap.String("path", path), zap.Error(err))
	}
	for _, s := range skipped {
		log.Debug("Skipping unsupported file", zap.String("file", s))
	}
	log.Info("Documents found", zap.Int("files", len(files)), zap.Int("skipped", len(skipped)))
	if dryRun {
		for _, f := range files {
			fmt.Println(f)
		}
		return
	}

	if cfg.Index.Backend != "redis" {
		log.Warn("Index backend is in-memory; ingested chunks are discarded on exit", zap.String("backend", cfg.Index.Backend))
	}

	infra, err := app.NewInfrastructure(cfg)
	if err != nil {
		log.Fatal("Failed to initialize infrastructure", zap.Error(err))
	}
	defer infra.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary := ingestAll(ctx, service.NewIngestService(infra.Chunker, infra.Index), files, source)
	log.Info("Ingestion finished",
		zap.Int("documents", summary.Documents),
		zap.Int("chunks", summary.Chunks),
		zap.Int("failed", len(summary.Failed)),
	)
	if len(summary.Failed) > 0 {
		os.Exit(1)
	}
}
