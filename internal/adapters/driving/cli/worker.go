package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/chunker"
	"github.com/custodia-labs/docqa/internal/config"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/extractor"
	"github.com/custodia-labs/docqa/internal/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the ingestion worker",
	Long: `Consumes the ingestion queue, extracting, chunking, embedding and
indexing uploaded documents until interrupted.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	chunks, err := chunker.New(
		chunker.WithSize(cfg.Worker.ChunkSize),
		chunker.WithOverlap(cfg.Worker.ChunkOverlap),
	)
	if err != nil {
		return fmt.Errorf("chunker: %w", err)
	}

	ingest := services.NewIngestionService(
		a.store,
		a.blobs,
		a.queue,
		a.vectors,
		a.embedder,
		extractor.New(),
		chunks,
	)

	if err := ingest.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker: %w", err)
	}
	logger.Info("worker stopped")
	return nil
}
