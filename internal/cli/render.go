package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/yuchingtsai/bookkeep/internal/model"
	"github.com/yuchingtsai/bookkeep/internal/service"
)

// RenderResult formats a classification result for terminal display.
func RenderResult(result *model.ClassificationResult, taxonomy *model.Taxonomy) string {
	var b strings.Builder

	categoryLine := result.CategoryID
	if taxonomy != nil {
		if cat, ok := taxonomy.Lookup(result.CategoryID); ok {
			categoryLine = cat.Name
			if cat.Icon != "" {
				categoryLine = cat.Icon + " " + categoryLine
			}
		}
	}

	b.WriteString(BoldStyle.Render(result.Description))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Category:   %s", categoryLine)
	if len(result.CategoryIDs) > 1 {
		fmt.Fprintf(&b, "  (+%s)", strings.Join(result.CategoryIDs[1:], ", "))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Type:       %s\n", result.Type)
	fmt.Fprintf(&b, "  Confidence: %s\n", renderConfidence(result.Confidence))
	if result.Explanation != "" {
		fmt.Fprintf(&b, "  Note:       %s\n", SubtleStyle.Render(result.Explanation))
	}
	if result.Degraded() {
		b.WriteString("  " + FormatWarning("keyword fallback: "+result.ErrorMessage) + "\n")
	}

	return b.String()
}

func renderConfidence(confidence int) string {
	text := fmt.Sprintf("%d%%", confidence)
	switch {
	case confidence >= 80:
		return SuccessStyle.Render(text)
	case confidence >= 50:
		return WarningStyle.Render(text)
	default:
		return ErrorStyle.Render(text)
	}
}

// RenderCategories formats the category taxonomy as a table.
func RenderCategories(categories []model.Category) string {
	var b strings.Builder

	header := fmt.Sprintf("%-16s %-20s %-8s", "ID", "NAME", "TYPE")
	b.WriteString(TableHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, cat := range categories {
		name := cat.Name
		if cat.Icon != "" {
			name = cat.Icon + " " + name
		}
		row := fmt.Sprintf("%-16s %-20s %-8s", cat.ID, name, cat.Direction)
		if !cat.IsActive {
			row = SubtleStyle.Render(row + " (inactive)")
		}
		b.WriteString(TableCellStyle.Render(row))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderCompletionStats formats classification run statistics in a box.
func RenderCompletionStats(stats service.CompletionStats) string {
	content := fmt.Sprintf("  • Transactions: %d\n", stats.TotalTransactions) +
		fmt.Sprintf("  • Classified by AI: %d %s\n", stats.Classified, RobotIcon) +
		fmt.Sprintf("  • Keyword fallback: %d\n", stats.Fallback) +
		fmt.Sprintf("  • Time taken: %s\n", stats.Duration.Round(time.Second))

	return RenderBox("Classification Complete", content)
}
