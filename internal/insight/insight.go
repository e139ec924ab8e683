// Package insight computes spending summaries from classified transactions
// and optionally narrates them with an LLM.
package insight

import (
	"sort"
	"time"

	"github.com/yuchingtsai/bookkeep/internal/model"
	"github.com/yuchingtsai/bookkeep/internal/service"
)

// CategoryBreakdown is one category's share of a period.
type CategoryBreakdown struct {
	CategoryID string
	Name       string
	Count      int
	Amount     float64
}

// Summary aggregates classified transactions over a period.
type Summary struct {
	Start        time.Time
	End          time.Time
	Income       float64
	Expense      float64
	Transactions int
	// Expenses by category, largest first.
	TopExpenses []CategoryBreakdown
}

// Balance returns income minus expense for the period.
func (s Summary) Balance() float64 {
	return s.Income - s.Expense
}

// SavingsRate returns the fraction of income kept, in [0, 1]. Zero income
// yields zero.
func (s Summary) SavingsRate() float64 {
	if s.Income <= 0 {
		return 0
	}
	rate := s.Balance() / s.Income
	if rate < 0 {
		return 0
	}
	return rate
}

// TopExpenseCategory returns the largest expense category, if any.
func (s Summary) TopExpenseCategory() (CategoryBreakdown, bool) {
	if len(s.TopExpenses) == 0 {
		return CategoryBreakdown{}, false
	}
	return s.TopExpenses[0], true
}

// Summarize aggregates classifications into a period summary. The taxonomy
// resolves category names; unknown categories keep their raw id.
func Summarize(classifications []model.Classification, taxonomy *model.Taxonomy, period service.DateRange) Summary {
	summary := Summary{
		Start:        period.Start,
		End:          period.End,
		Transactions: len(classifications),
	}

	byCategory := make(map[string]*CategoryBreakdown)

	for _, cls := range classifications {
		amount := cls.Transaction.Amount
		switch cls.Result.Type {
		case model.DirectionIncome:
			summary.Income += amount
		case model.DirectionExpense:
			summary.Expense += amount

			id := cls.Result.CategoryID
			entry, ok := byCategory[id]
			if !ok {
				entry = &CategoryBreakdown{CategoryID: id, Name: id}
				if taxonomy != nil {
					if cat, found := taxonomy.Lookup(id); found {
						entry.Name = cat.Name
					}
				}
				byCategory[id] = entry
			}
			entry.Count++
			entry.Amount += amount
		}
	}

	summary.TopExpenses = make([]CategoryBreakdown, 0, len(byCategory))
	for _, entry := range byCategory {
		summary.TopExpenses = append(summary.TopExpenses, *entry)
	}
	sort.Slice(summary.TopExpenses, func(i, j int) bool {
		if summary.TopExpenses[i].Amount != summary.TopExpenses[j].Amount {
			return summary.TopExpenses[i].Amount > summary.TopExpenses[j].Amount
		}
		return summary.TopExpenses[i].CategoryID < summary.TopExpenses[j].CategoryID
	})

	return summary
}
