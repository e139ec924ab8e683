package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuchingtsai/bookkeep/internal/model"
)

func fallbackTaxonomy(t *testing.T) *model.Taxonomy {
	t.Helper()
	return model.NewTaxonomy([]model.Category{
		{ID: "food", Name: "飲食", Direction: model.DirectionExpense},
		{ID: "transport", Name: "交通", Direction: model.DirectionExpense},
		{ID: "shopping", Name: "購物", Direction: model.DirectionExpense},
		{ID: "entertainment", Name: "娛樂", Direction: model.DirectionExpense},
		{ID: "salary", Name: "薪資", Direction: model.DirectionIncome},
		{ID: "investment", Name: "投資", Direction: model.DirectionIncome},
	})
}

func TestFallbackClassify(t *testing.T) {
	taxonomy := fallbackTaxonomy(t)

	tests := []struct {
		name           string
		description    string
		wantCategoryID string
		wantType       model.Direction
		wantConfidence int
	}{
		{
			name:           "starbucks coffee matches food",
			description:    "星巴克咖啡85元",
			wantType:       model.DirectionExpense,
			wantCategoryID: "food",
			wantConfidence: 70,
		},
		{
			name:           "english keyword case-insensitive",
			description:    "STARBUCKS GRANDE LATTE",
			wantType:       model.DirectionExpense,
			wantCategoryID: "food",
			wantConfidence: 70,
		},
		{
			name:           "salary keyword wins over spend keywords",
			description:    "公司薪資入帳35000元",
			wantType:       model.DirectionIncome,
			wantCategoryID: "salary",
			wantConfidence: 60,
		},
		{
			name:           "dividend matches investment income",
			description:    "台積電股息發放",
			wantType:       model.DirectionIncome,
			wantCategoryID: "investment",
			wantConfidence: 60,
		},
		{
			name:           "taxi matches transport",
			description:    "uber回家250元",
			wantType:       model.DirectionExpense,
			wantCategoryID: "transport",
			wantConfidence: 70,
		},
		{
			name:           "unmatched description gets default expense",
			description:    "zzqq 12345",
			wantType:       model.DirectionExpense,
			wantCategoryID: "food",
			wantConfidence: 25,
		},
		{
			name:           "emoji-only description gets default expense",
			description:    "🎉🎉🎉",
			wantType:       model.DirectionExpense,
			wantCategoryID: "food",
			wantConfidence: 25,
		},
	}

	f := NewFallbackClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.Classify(tt.description, taxonomy, "llm unavailable")
			require.NotNil(t, result)
			assert.Equal(t, tt.wantType, result.Type)
			assert.Equal(t, tt.wantCategoryID, result.CategoryID)
			assert.Equal(t, []string{tt.wantCategoryID}, result.CategoryIDs)
			assert.Equal(t, tt.wantConfidence, result.Confidence)
			assert.Equal(t, "llm unavailable", result.ErrorMessage)
			assert.True(t, result.Metadata.UsedFallback)
			assert.True(t, result.Degraded())
		})
	}
}

// The fallback must produce a structurally valid result against an empty
// taxonomy rather than crashing.
func TestFallbackClassifyEmptyTaxonomy(t *testing.T) {
	f := NewFallbackClassifier()
	result := f.Classify("星巴克咖啡85元", model.NewTaxonomy(nil), "llm unavailable")

	require.NotNil(t, result)
	assert.Equal(t, model.DirectionExpense, result.Type)
	assert.Equal(t, "other", result.CategoryID)
	assert.Equal(t, []string{"other"}, result.CategoryIDs)
}

// Keyword sets whose category is absent from the taxonomy are skipped, not
// emitted as invalid references.
func TestFallbackClassifySkipsMissingCategories(t *testing.T) {
	taxonomy := model.NewTaxonomy([]model.Category{
		{ID: "transport", Name: "交通", Direction: model.DirectionExpense},
	})

	f := NewFallbackClassifier()
	result := f.Classify("星巴克咖啡85元", taxonomy, "llm unavailable")

	require.NotNil(t, result)
	assert.Equal(t, "transport", result.CategoryID)
	assert.Equal(t, 25, result.Confidence)
}

func TestFallbackEmptyInputResult(t *testing.T) {
	f := NewFallbackClassifier()
	result := f.EmptyInputResult(fallbackTaxonomy(t), "no description provided")

	require.NotNil(t, result)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, model.DirectionExpense, result.Type)
	assert.Equal(t, "food", result.CategoryID)
	assert.True(t, result.Metadata.UsedFallback)
}

func TestFallbackCorrections(t *testing.T) {
	taxonomy := fallbackTaxonomy(t)
	f := NewFallbackClassifier()
	f.SetCorrections([]model.Correction{
		{Description: "星巴克咖啡85元", CategoryID: "entertainment", Direction: model.DirectionExpense},
		{Description: "幽靈交易", CategoryID: "ghost", Direction: model.DirectionExpense},
	})

	t.Run("correction overrides keyword match", func(t *testing.T) {
		result := f.Classify("星巴克咖啡85元", taxonomy, "llm unavailable")
		assert.Equal(t, "entertainment", result.CategoryID)
		assert.Equal(t, 100, result.Confidence)
	})

	t.Run("correction matching is trim and case insensitive", func(t *testing.T) {
		result := f.Classify("  星巴克咖啡85元  ", taxonomy, "llm unavailable")
		assert.Equal(t, "entertainment", result.CategoryID)
	})

	t.Run("correction pointing at unknown category is ignored", func(t *testing.T) {
		result := f.Classify("幽靈交易", taxonomy, "llm unavailable")
		assert.NotEqual(t, "ghost", result.CategoryID)
		assert.Equal(t, 25, result.Confidence)
	})

	t.Run("other descriptions unaffected", func(t *testing.T) {
		result := f.Classify("uber回家250元", taxonomy, "llm unavailable")
		assert.Equal(t, "transport", result.CategoryID)
	})
}
