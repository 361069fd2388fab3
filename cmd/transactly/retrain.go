package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/transactly/transactly/internal/embedding"
	"github.com/transactly/transactly/internal/normalize"
	"github.com/transactly/transactly/internal/retrain"
	"github.com/transactly/transactly/internal/storage"
)

func retrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Merge feedback and retrain the classifier",
		Long: `Merge accumulated feedback corrections into the training corpus,
regenerate every embedding, refit the classifier, and atomically replace the
serving model. The previous model keeps serving until the swap.`,
		RunE: runRetrain,
	}
	cmd.Flags().Bool("no-progress", false, "Disable the embedding progress bar")
	return cmd
}

func runRetrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	paths := dataPaths()

	feedback, err := storage.NewFeedbackStore(paths.FeedbackDBPath())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := feedback.Close(); closeErr != nil {
			slog.Error("Failed to close feedback store", "error", closeErr)
		}
	}()

	provider := embedding.NewProvider(paths.ModelCacheDir())
	defer func() {
		if closeErr := provider.Close(); closeErr != nil {
			slog.Error("Failed to close embedding provider", "error", closeErr)
		}
	}()

	pipeline := retrain.New(paths, provider, feedback, normalize.New(),
		retrain.WithProgress(!noProgress))

	m, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Retraining complete: accuracy %.4f, macro F1 %.4f (%d train / %d test)\n",
		m.Metrics.Accuracy, m.Metrics.MacroF1, m.Metrics.TrainSize, m.Metrics.TestSize)
	for _, report := range m.Metrics.PerClass {
		cmd.Printf("  %-22s precision %.3f  recall %.3f  f1 %.3f  support %d\n",
			report.Category, report.Precision, report.Recall, report.F1, report.Support)
	}
	return nil
}
