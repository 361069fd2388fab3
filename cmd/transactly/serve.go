package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/transactly/transactly/internal/server"
	"github.com/transactly/transactly/internal/storage"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the classification HTTP API",
		Long: `Run the HTTP API exposing classification and feedback endpoints:

  POST /api/classify   {"description": "..."}
  POST /api/feedback   {"description": ..., "corrected_category": ..., ...}
  GET  /api/categories
  GET  /healthz`,
		RunE: runServe,
	}
	cmd.Flags().String("host", "localhost", "Host to bind")
	cmd.Flags().Int("port", 8000, "Port to listen on")
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	paths := dataPaths()

	eng, provider, err := buildEngine(paths)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := provider.Close(); closeErr != nil {
			slog.Error("Failed to close embedding provider", "error", closeErr)
		}
	}()

	feedback, err := storage.NewFeedbackStore(paths.FeedbackDBPath())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := feedback.Close(); closeErr != nil {
			slog.Error("Failed to close feedback store", "error", closeErr)
		}
	}()

	srv, err := server.NewServer(eng, feedback, server.Config{
		Host: viper.GetString("server.host"),
		Port: viper.GetInt("server.port"),
	})
	if err != nil {
		return err
	}

	return srv.Start(ctx)
}
