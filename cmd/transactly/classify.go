package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Categorize a single transaction description",
		Long: `Categorize a free-text transaction description.

A deterministic merchant rule wins outright when one matches; otherwise the
description is normalized, embedded, and scored by the trained classifier.
Low-confidence predictions surface as "Uncertain" for review.

Examples:
  transactly classify "IRCTC Train Booking #7845"
  transactly classify "AMZN PMT #9283"`,
		Args: cobra.ExactArgs(1),
		RunE: runClassify,
	}
	cmd.Flags().Bool("json", false, "Emit the decision as JSON")
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	asJSON, _ := cmd.Flags().GetBool("json")

	eng, provider, err := buildEngine(dataPaths())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := provider.Close(); closeErr != nil {
			slog.Error("Failed to close embedding provider", "error", closeErr)
		}
	}()

	decision, err := eng.Classify(ctx, args[0])
	if err != nil {
		return err
	}

	if asJSON {
		out, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding decision: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Printf("Category:    %s\n", decision.FinalCategory)
	cmd.Printf("Method:      %s\n", decision.Method)
	cmd.Printf("Confidence:  %.3f\n", decision.Confidence)
	cmd.Printf("Explanation: %s\n", decision.Explanation)
	for i, ex := range decision.SimilarExamples {
		if i == 0 {
			cmd.Println("Similar examples:")
		}
		cmd.Printf("  %-30s %.3f\n", ex.Text, ex.Similarity)
	}
	return nil
}
