package insight

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Advisor turns a period summary into a short narrative using Gemini.
type Advisor struct {
	client *genai.Client
	model  string
}

// NewAdvisor creates an advisor backed by the Gemini API.
func NewAdvisor(ctx context.Context, apiKey, model string) (*Advisor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("advisor API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Advisor{client: client, model: model}, nil
}

// Narrate asks the model for a short review of the period. The narrative is
// advisory text for display only; nothing downstream parses it.
func (a *Advisor) Narrate(ctx context.Context, summary Summary) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(buildNarrativePrompt(summary), genai.RoleUser),
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, contents,
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.7),
			MaxOutputTokens: 400,
		})
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("narrative generation returned no text")
	}
	return text, nil
}

func buildNarrativePrompt(summary Summary) string {
	var b strings.Builder

	b.WriteString("You are a personal finance assistant. Review this spending period and reply with 3-4 friendly sentences: one observation about the balance, one about the biggest spending category, and one practical suggestion.\n\n")
	fmt.Fprintf(&b, "Period: %s to %s\n",
		summary.Start.Format("2006-01-02"), summary.End.Format("2006-01-02"))
	fmt.Fprintf(&b, "Income: %.2f\n", summary.Income)
	fmt.Fprintf(&b, "Expenses: %.2f\n", summary.Expense)
	fmt.Fprintf(&b, "Balance: %.2f\n", summary.Balance())
	fmt.Fprintf(&b, "Savings rate: %.0f%%\n", summary.SavingsRate()*100)

	if len(summary.TopExpenses) > 0 {
		b.WriteString("Top expense categories:\n")
		limit := len(summary.TopExpenses)
		if limit > 5 {
			limit = 5
		}
		for _, entry := range summary.TopExpenses[:limit] {
			fmt.Fprintf(&b, "- %s: %.2f (%d transactions)\n",
				entry.Name, entry.Amount, entry.Count)
		}
	}

	return b.String()
}
