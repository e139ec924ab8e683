package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yuchingtsai/bookkeep/internal/cli"
	"github.com/yuchingtsai/bookkeep/internal/common"
	"github.com/yuchingtsai/bookkeep/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
		Long:  `List, add, and remove the categories used for classification.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No categories found. Use 'bookkeep categories add' to create one."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Categories"))
			fmt.Print(cli.RenderCategories(categories))
			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var icon string
	var income bool

	cmd := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Add a new category",
		Long:  `Create a new category. The id is what classifications reference; the name is what prompts and reports display.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			direction := model.DirectionExpense
			if income {
				direction = model.DirectionIncome
			}

			category := model.Category{
				ID:        args[0],
				Name:      args[1],
				Icon:      icon,
				Direction: direction,
				IsActive:  true,
			}

			if err := store.CreateCategory(ctx, category); err != nil {
				if errors.Is(err, common.ErrDuplicateEntry) {
					return fmt.Errorf("category %q already exists", category.ID)
				}
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created %s category %q (%s)", direction, category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "Display icon for the category")
	cmd.Flags().BoolVar(&income, "income", false, "Create an income category instead of an expense one")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Deactivate a category",
		Long:  `Deactivate a category. Existing classifications keep their category; new classifications stop offering it.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteCategory(ctx, args[0]); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("category %q not found", args[0])
				}
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deactivated category %q", args[0])))
			return nil
		},
	}
}
