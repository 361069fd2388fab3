package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/transactly/transactly/internal/model"
	"github.com/transactly/transactly/internal/storage"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record and inspect classification corrections",
	}
	cmd.AddCommand(feedbackAddCmd())
	cmd.AddCommand(feedbackListCmd())
	return cmd
}

func feedbackAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <description> <corrected-category>",
		Short: "Record a correction for a misclassified transaction",
		Args:  cobra.ExactArgs(2),
		RunE:  runFeedbackAdd,
	}
	cmd.Flags().String("predicted", "", "Category the engine originally predicted")
	cmd.Flags().String("method", string(model.MethodLowConfidence), "Decision method of the original prediction")
	cmd.Flags().Float64("confidence", 0, "Confidence of the original prediction")
	return cmd
}

func runFeedbackAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	predicted, _ := cmd.Flags().GetString("predicted")
	method, _ := cmd.Flags().GetString("method")
	confidence, _ := cmd.Flags().GetFloat64("confidence")

	store, err := storage.NewFeedbackStore(dataPaths().FeedbackDBPath())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close feedback store", "error", closeErr)
		}
	}()

	rec := model.FeedbackRecord{
		Description:       args[0],
		PredictedCategory: predicted,
		CorrectedCategory: model.NormalizeLabel(args[1]),
		Method:            method,
		Confidence:        confidence,
	}
	if err := store.Append(ctx, rec); err != nil {
		return err
	}

	cmd.Printf("Recorded: %q -> %s\n", rec.Description, rec.CorrectedCategory)
	return nil
}

func feedbackListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded corrections in insertion order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.NewFeedbackStore(dataPaths().FeedbackDBPath())
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close feedback store", "error", closeErr)
				}
			}()

			records, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				cmd.Println("No feedback recorded yet.")
				return nil
			}
			for _, rec := range records {
				cmd.Printf("%4d  %-40q  %s -> %s (%s, %.3f)\n",
					rec.ID, rec.Description, rec.PredictedCategory, rec.CorrectedCategory,
					rec.Method, rec.Confidence)
			}
			return nil
		},
	}
}
