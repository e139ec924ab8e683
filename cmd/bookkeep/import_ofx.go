package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yuchingtsai/bookkeep/internal/cli"
	"github.com/yuchingtsai/bookkeep/internal/model"
	"github.com/yuchingtsai/bookkeep/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX (Quicken) files exported from your bank.

Examples:
  # Import a single file
  bookkeep import-ofx ~/Downloads/statement_jan.qfx

  # Import everything in a directory
  bookkeep import-ofx ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var files []string
			for _, pattern := range args {
				matches, err := filepath.Glob(pattern)
				if err != nil {
					return fmt.Errorf("invalid pattern %s: %w", pattern, err)
				}
				if len(matches) == 0 {
					if _, err := os.Stat(pattern); err == nil {
						files = append(files, pattern)
					} else {
						slog.Warn("no files found matching pattern", "pattern", pattern)
					}
				} else {
					files = append(files, matches...)
				}
			}

			if len(files) == 0 {
				return fmt.Errorf("no files found to import")
			}

			parser := ofx.NewParser()
			seen := make(map[string]bool)
			var transactions []model.Transaction

			for _, path := range files {
				f, err := os.Open(path)
				if err != nil {
					slog.Error("failed to open file", "file", path, "error", err)
					continue
				}

				parsed, err := parser.ParseFile(ctx, f)
				_ = f.Close()
				if err != nil {
					slog.Error("failed to parse OFX file", "file", path, "error", err)
					continue
				}

				added := 0
				for _, txn := range parsed {
					if !seen[txn.Hash] {
						seen[txn.Hash] = true
						transactions = append(transactions, txn)
						added++
					}
				}

				slog.Info("processed file",
					"file", filepath.Base(path),
					"found", len(parsed),
					"added", added,
					"duplicates", len(parsed)-added)
			}

			if len(transactions) == 0 {
				fmt.Println(cli.FormatWarning("no transactions found in any file"))
				return nil
			}

			if dryRun {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Dry run: would import %d transactions", len(transactions))))
				return nil
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveTransactions(ctx, transactions); err != nil {
				return fmt.Errorf("failed to save transactions: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions from %d files", len(transactions), len(files))))
			fmt.Println(cli.SubtleStyle.Render("Run 'bookkeep classify' to categorize them."))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Parse files without saving")

	return cmd
}
