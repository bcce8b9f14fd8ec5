package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docqa/internal/config"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the API server handling document uploads, chat queries and
streaming answers. Ingestion itself runs in the worker process.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
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

	rag := services.NewRAGService(
		a.cache,
		a.memory,
		a.embedder,
		a.vectors,
		a.llm,
		services.WithTopK(cfg.RAG.TopK),
		services.WithGrounding(cfg.GroundingMode()),
	)
	docs := services.NewDocumentService(a.store, a.blobs, a.queue, a.vectors, cfg.Blob.Bucket)

	server := httpapi.NewServer(httpapi.Config{
		Addr:               cfg.Server.Addr,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	}, rag, docs, a.cache)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "config.toml"
}
