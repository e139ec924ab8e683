package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuchingtsai/bookkeep/internal/cli"
	"github.com/yuchingtsai/bookkeep/internal/engine"
	"github.com/yuchingtsai/bookkeep/internal/model"
)

func classifyCmd() *cobra.Command {
	var batchSize int
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "classify [description...]",
		Short: "Classify transactions",
		Long: `Classify transactions with the configured LLM provider.

With a description argument, classifies it directly and prints the result.
Without arguments, classifies every imported transaction that has no
category yet.

Examples:
  # Ad-hoc classification
  bookkeep classify "星巴克咖啡85元"

  # Classify all imported, unclassified transactions
  bookkeep classify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			classifier, err := newClassifier()
			if err != nil {
				return fmt.Errorf("failed to initialize classifier: %w", err)
			}
			defer func() { _ = classifier.Close() }()

			if len(args) > 0 {
				description := strings.Join(args, " ")

				categories, err := store.GetCategories(ctx)
				if err != nil {
					return fmt.Errorf("failed to load categories: %w", err)
				}
				taxonomy := model.NewTaxonomy(categories)

				corrections, err := store.GetCorrections(ctx)
				if err != nil {
					return fmt.Errorf("failed to load corrections: %w", err)
				}
				classifier.SetCorrections(corrections)

				result := classifier.Classify(ctx,
					model.ClassificationRequest{Description: description}, taxonomy)
				fmt.Println(cli.RenderResult(result, taxonomy))
				return nil
			}

			eng := engine.NewWithConfig(store, classifier, engine.Config{
				BatchSize:    batchSize,
				ShowProgress: !noProgress,
			})

			stats, err := eng.ClassifyTransactions(ctx)
			if err != nil {
				return fmt.Errorf("classification run failed: %w", err)
			}

			fmt.Println(cli.RenderCompletionStats(stats))
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 50, "Transactions per batch")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}
