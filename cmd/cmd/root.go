package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clustering-service/internal/config"
	"clustering-service/internal/encoder"
	"clustering-service/internal/logger"
	"clustering-service/internal/orchestrator"
	"clustering-service/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "clustering-service",
	Short: "Text clustering service: embeddings, UMAP reduction, HDBSCAN clustering",
	Long: `clustering-service embeds text, reduces its dimensionality with UMAP,
groups it with HDBSCAN, and returns cluster assignments over HTTP.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP clustering server",
	Long: `Start the HTTP server exposing /health, /embeddings,
/ai-worker/clustering, /clustering/auto and /embeddings-and-clustering.

Configuration is read entirely from the environment (see SPEC_FULL.md §6).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	encoder.Init(encoder.Options{
		ModelName:     cfg.EmbeddingModelName,
		APIKey:        cfg.EncoderAPIKey,
		Dimensions:    cfg.ExpectedEmbeddingDimensions,
		BatchSize:     cfg.BatchSize,
		MaxTextLength: cfg.MaxTextLength,
	})
	enc, err := encoder.Get()
	if err != nil {
		log.Warn("encoder unavailable at startup, will report ENCODER_UNAVAILABLE until configured", "error", err)
	}

	orch := orchestrator.New(enc, log, cfg.ExpectedEmbeddingDimensions)
	srv := server.New(orch, enc, cfg)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
