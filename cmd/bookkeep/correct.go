package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuchingtsai/bookkeep/internal/cli"
	"github.com/yuchingtsai/bookkeep/internal/common"
	"github.com/yuchingtsai/bookkeep/internal/model"
)

func correctCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "correct <description> <category-id>",
		Short: "Record a category correction",
		Long: `Record the right category for a description. Future classifications of
the exact same description use the correction instead of the model.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			description, categoryID := args[0], args[1]

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := store.GetCategoryByID(ctx, categoryID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("category %q not found", categoryID)
				}
				return fmt.Errorf("failed to look up category: %w", err)
			}

			correction := model.Correction{
				Description: description,
				CategoryID:  category.ID,
				Direction:   category.Direction,
				CreatedAt:   time.Now(),
			}
			if err := store.SaveCorrection(ctx, &correction); err != nil {
				return fmt.Errorf("failed to save correction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%q will now classify as %s", description, category.Name)))
			return nil
		},
	}
}
