package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yuchingtsai/bookkeep/internal/cli"
	"github.com/yuchingtsai/bookkeep/internal/insight"
	"github.com/yuchingtsai/bookkeep/internal/model"
	"github.com/yuchingtsai/bookkeep/internal/service"
)

func summaryCmd() *cobra.Command {
	var month string
	var narrate bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a spending summary for a month",
		Long: `Aggregate classified transactions for a month and show income, expenses,
balance, and the largest spending categories. With --narrate, Gemini adds a
short written review.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			period, err := resolvePeriod(month)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to load categories: %w", err)
			}
			taxonomy := model.NewTaxonomy(categories)

			classifications, err := store.GetClassificationsByDateRange(ctx, period.Start, period.End)
			if err != nil {
				return fmt.Errorf("failed to load classifications: %w", err)
			}

			summary := insight.Summarize(classifications, taxonomy, period)
			fmt.Println(renderSummary(summary))

			if narrate {
				advisor, err := insight.NewAdvisor(ctx,
					viper.GetString("llm.api_key"), viper.GetString("llm.model"))
				if err != nil {
					return fmt.Errorf("failed to initialize advisor: %w", err)
				}

				narrative, err := advisor.Narrate(ctx, summary)
				if err != nil {
					return fmt.Errorf("failed to generate narrative: %w", err)
				}
				fmt.Println(cli.RenderBox("Monthly Review", narrative))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month to summarize as YYYY-MM (default: current month)")
	cmd.Flags().BoolVar(&narrate, "narrate", false, "Add an AI-written review of the month")

	return cmd
}

func resolvePeriod(month string) (service.DateRange, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)

	if month != "" {
		parsed, err := time.ParseInLocation("2006-01", month, time.Local)
		if err != nil {
			return service.DateRange{}, fmt.Errorf("invalid month %q, expected YYYY-MM", month)
		}
		start = parsed
	}

	return service.DateRange{
		Start: start,
		End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
	}, nil
}

func renderSummary(summary insight.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "  Income:       %12.2f\n", summary.Income)
	fmt.Fprintf(&b, "  Expenses:     %12.2f\n", summary.Expense)

	balance := fmt.Sprintf("%12.2f", summary.Balance())
	if summary.Balance() >= 0 {
		balance = cli.SuccessStyle.Render(balance)
	} else {
		balance = cli.ErrorStyle.Render(balance)
	}
	fmt.Fprintf(&b, "  Balance:      %s\n", balance)
	fmt.Fprintf(&b, "  Savings rate: %11.0f%%\n", summary.SavingsRate()*100)
	fmt.Fprintf(&b, "  Transactions: %12d\n", summary.Transactions)

	if len(summary.TopExpenses) > 0 {
		b.WriteString("\n  Top spending:\n")
		limit := len(summary.TopExpenses)
		if limit > 5 {
			limit = 5
		}
		for _, entry := range summary.TopExpenses[:limit] {
			fmt.Fprintf(&b, "    %-20s %10.2f  (%d)\n", entry.Name, entry.Amount, entry.Count)
		}
	}

	title := fmt.Sprintf("%s Summary for %s", cli.ChartIcon, summary.Start.Format("January 2006"))
	return cli.RenderBox(title, b.String())
}
