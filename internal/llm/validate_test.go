package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuchingtsai/bookkeep/internal/model"
)

func testTaxonomy(t *testing.T) *model.Taxonomy {
	t.Helper()
	return model.NewTaxonomy([]model.Category{
		{ID: "food", Name: "飲食", Direction: model.DirectionExpense},
		{ID: "transport", Name: "交通", Direction: model.DirectionExpense},
		{ID: "shopping", Name: "購物", Direction: model.DirectionExpense},
		{ID: "salary", Name: "薪資", Direction: model.DirectionIncome},
		{ID: "bonus", Name: "獎金", Direction: model.DirectionIncome},
	})
}

func TestValidateResult(t *testing.T) {
	taxonomy := testTaxonomy(t)

	tests := []struct {
		parsed         any
		name           string
		wantCategoryID string
		wantCategories []string
		wantViolation  string
		wantType       model.Direction
		wantConfidence int
	}{
		{
			name: "valid expense",
			parsed: map[string]any{
				"type":        "expense",
				"categoryIds": []any{"food"},
				"confidence":  float64(90),
				"description": "午餐 100元",
			},
			wantType:       model.DirectionExpense,
			wantCategoryID: "food",
			wantCategories: []string{"food"},
			wantConfidence: 90,
		},
		{
			name: "confidence as numeric string is coerced",
			parsed: map[string]any{
				"type":        "expense",
				"categoryIds": []any{"food"},
				"confidence":  "85",
				"description": "咖啡 120元",
			},
			wantType:       model.DirectionExpense,
			wantCategoryID: "food",
			wantCategories: []string{"food"},
			wantConfidence: 85,
		},
		{
			name: "fractional confidence rounds",
			parsed: map[string]any{
				"type":        "income",
				"categoryIds": []any{"salary"},
				"confidence":  87.6,
				"description": "薪資 35000元",
			},
			wantType:       model.DirectionIncome,
			wantCategoryID: "salary",
			wantCategories: []string{"salary"},
			wantConfidence: 88,
		},
		{
			name: "plural filters wrong-direction and unknown ids",
			parsed: map[string]any{
				"type":        "expense",
				"categoryIds": []any{"salary", "ghost", "food", "transport"},
				"confidence":  float64(70),
				"description": "交通 60元",
			},
			wantType:       model.DirectionExpense,
			wantCategoryID: "food",
			wantCategories: []string{"food", "transport"},
			wantConfidence: 70,
		},
		{
			name: "plural deduplicates and truncates to three",
			parsed: map[string]any{
				"type":        "expense",
				"categoryIds": []any{"food", "food", "transport", "shopping", "transport"},
				"confidence":  float64(60),
				"description": "雜項 500元",
			},
			wantType:       model.DirectionExpense,
			wantCategoryID: "food",
			wantCategories: []string{"food", "transport", "shopping"},
			wantConfidence: 60,
		},
		{
			name: "legacy singular categoryId accepted when plural absent",
			parsed: map[string]any{
				"type":        "income",
				"categoryId":  "salary",
				"confidence":  float64(95),
				"description": "薪資 35000元",
			},
			wantType:       model.DirectionIncome,
			wantCategoryID: "salary",
			wantCategories: []string{"salary"},
			wantConfidence: 95,
		},
		{
			name: "singular ignored when plural yields a match",
			parsed: map[string]any{
				"type":        "expense",
				"categoryId":  "transport",
				"categoryIds": []any{"food"},
				"confidence":  float64(80),
				"description": "午餐 100元",
			},
			wantType:       model.DirectionExpense,
			wantCategoryID: "food",
			wantCategories: []string{"food"},
			wantConfidence: 80,
		},
		{
			name:          "not an object",
			parsed:        []any{"expense"},
			wantViolation: "not a JSON object",
		},
		{
			name: "invalid type",
			parsed: map[string]any{
				"type":        "transfer",
				"categoryIds": []any{"food"},
				"confidence":  float64(90),
				"description": "x",
			},
			wantViolation: "type must be",
		},
		{
			name: "no category matches taxonomy",
			parsed: map[string]any{
				"type":        "expense",
				"categoryIds": []any{"salary"},
				"confidence":  float64(90),
				"description": "x",
			},
			wantViolation: "no id matches the taxonomy",
		},
		{
			name: "confidence out of range",
			parsed: map[string]any{
				"type":        "expense",
				"categoryIds": []any{"food"},
				"confidence":  float64(150),
				"description": "x",
			},
			wantViolation: "out of range",
		},
		{
			name: "confidence missing",
			parsed: map[string]any{
				"type":        "expense",
				"categoryIds": []any{"food"},
				"description": "x",
			},
			wantViolation: "confidence is missing",
		},
		{
			name: "confidence not a number",
			parsed: map[string]any{
				"type":        "expense",
				"categoryIds": []any{"food"},
				"confidence":  "very high",
				"description": "x",
			},
			wantViolation: "not a finite number",
		},
		{
			name: "description empty",
			parsed: map[string]any{
				"type":        "expense",
				"categoryIds": []any{"food"},
				"confidence":  float64(90),
				"description": "   ",
			},
			wantViolation: "description is missing or empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateResult(tt.parsed, taxonomy)
			if tt.wantViolation != "" {
				require.Error(t, err)
				var valErr *ValidationError
				require.ErrorAs(t, err, &valErr)
				assert.Contains(t, err.Error(), tt.wantViolation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, result.Type)
			assert.Equal(t, tt.wantCategoryID, result.CategoryID)
			assert.Equal(t, tt.wantCategories, result.CategoryIDs)
			assert.Equal(t, tt.wantConfidence, result.Confidence)
			require.NotEmpty(t, result.CategoryIDs)
			assert.Equal(t, result.CategoryIDs[0], result.CategoryID)
		})
	}
}

// A response with several broken rules must report all of them at once.
func TestValidateResultCollectsAllViolations(t *testing.T) {
	_, err := ValidateResult(map[string]any{
		"type":       "transfer",
		"confidence": float64(150),
	}, testTaxonomy(t))

	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Len(t, valErr.Violations, 4)
}

func TestValidateResultConfidences(t *testing.T) {
	result, err := ValidateResult(map[string]any{
		"type":        "expense",
		"categoryIds": []any{"food", "transport"},
		"confidence":  float64(90),
		"confidences": []any{float64(90), "70", float64(50)},
		"description": "午餐 100元",
	}, testTaxonomy(t))

	require.NoError(t, err)
	assert.Equal(t, []int{90, 70}, result.Confidences)
}
