package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuchingtsai/bookkeep/internal/model"
)

func TestBuildClassificationPrompt(t *testing.T) {
	taxonomy := testTaxonomy(t)

	t.Run("includes description and every category", func(t *testing.T) {
		prompt := BuildClassificationPrompt(model.ClassificationRequest{
			Description: "星巴克咖啡85元",
		}, taxonomy)

		assert.Contains(t, prompt, "星巴克咖啡85元")
		assert.Contains(t, prompt, "- food: 飲食")
		assert.Contains(t, prompt, "- transport: 交通")
		assert.Contains(t, prompt, "- salary: 薪資")
		assert.Contains(t, prompt, "categoryIds")
	})

	t.Run("hint narrows the offered categories", func(t *testing.T) {
		prompt := BuildClassificationPrompt(model.ClassificationRequest{
			Description: "午餐",
			Hint:        []string{"food", "salary"},
		}, taxonomy)

		assert.Contains(t, prompt, "- food: 飲食")
		assert.Contains(t, prompt, "- salary: 薪資")
		assert.NotContains(t, prompt, "- transport: 交通")
		assert.NotContains(t, prompt, "- bonus: 獎金")
	})

	t.Run("deterministic over identical input", func(t *testing.T) {
		req := model.ClassificationRequest{Description: "午餐100元"}
		assert.Equal(t,
			BuildClassificationPrompt(req, taxonomy),
			BuildClassificationPrompt(req, taxonomy))
	})

	t.Run("direction with no categories renders a placeholder", func(t *testing.T) {
		expenseOnly := model.NewTaxonomy([]model.Category{
			{ID: "food", Name: "飲食", Direction: model.DirectionExpense},
		})
		prompt := BuildClassificationPrompt(model.ClassificationRequest{
			Description: "午餐",
		}, expenseOnly)

		assert.Contains(t, prompt, "(none)")
	})
}
