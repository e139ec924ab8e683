package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yuchingtsai/bookkeep/internal/model"
)

// coerceNumber converts a raw JSON value to a float64. Models regularly
// emit numeric fields as strings ("85" instead of 85), so numeric-looking
// strings are coerced before range checks apply.
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringField(obj map[string]any, key string) (string, bool) {
	v, exists := obj[key]
	if !exists {
		return "", false
	}
	s, isStr := v.(string)
	return s, isStr
}

// resolveCategoryIDs applies the category resolution rules: the plural
// categoryIds array is authoritative, filtered against the taxonomy under
// the predicted direction, deduplicated, and truncated to MaxCategoryIDs;
// the legacy singular categoryId is consulted only when the array yields
// nothing.
func resolveCategoryIDs(obj map[string]any, direction model.Direction, taxonomy *model.Taxonomy) []string {
	var resolved []string
	seen := make(map[string]bool)

	if rawIDs, exists := obj["categoryIds"].([]any); exists {
		for _, rawID := range rawIDs {
			id, isStr := rawID.(string)
			if !isStr || seen[id] || !taxonomy.Contains(id, direction) {
				continue
			}
			seen[id] = true
			resolved = append(resolved, id)
			if len(resolved) == model.MaxCategoryIDs {
				break
			}
		}
	}

	if len(resolved) == 0 {
		if id, isStr := stringField(obj, "categoryId"); isStr && taxonomy.Contains(id, direction) {
			resolved = append(resolved, id)
		}
	}

	return resolved
}

// ValidateResult converts a raw parsed JSON value plus a taxonomy into a
// canonical ClassificationResult. All violations are collected before
// failing so logs expose every broken rule at once.
func ValidateResult(parsed any, taxonomy *model.Taxonomy) (*model.ClassificationResult, error) {
	obj, isObj := parsed.(map[string]any)
	if !isObj {
		return nil, &ValidationError{
			Violations: []string{"response is not a JSON object"},
			Preview:    truncatePreview(fmt.Sprintf("%v", parsed)),
		}
	}

	var violations []string

	direction := model.Direction("")
	if typeStr, isStr := stringField(obj, "type"); isStr {
		direction = model.Direction(typeStr)
	}
	if !direction.Valid() {
		violations = append(violations, fmt.Sprintf("type must be %q or %q", model.DirectionIncome, model.DirectionExpense))
	}

	var categoryIDs []string
	if direction.Valid() {
		categoryIDs = resolveCategoryIDs(obj, direction, taxonomy)
		if len(categoryIDs) == 0 {
			violations = append(violations, "category id invalid: no id matches the taxonomy for the predicted type")
		}
	} else {
		violations = append(violations, "category id cannot be validated without a valid type")
	}

	confidence := 0
	if raw, exists := obj["confidence"]; exists {
		f, isNum := coerceNumber(raw)
		switch {
		case !isNum || math.IsNaN(f) || math.IsInf(f, 0):
			violations = append(violations, "confidence is not a finite number")
		case f < 0 || f > 100:
			violations = append(violations, fmt.Sprintf("confidence %v out of range [0, 100]", raw))
		default:
			confidence = int(math.Round(f))
		}
	} else {
		violations = append(violations, "confidence is missing")
	}

	description := ""
	if s, isStr := stringField(obj, "description"); isStr {
		description = strings.TrimSpace(s)
	}
	if description == "" {
		violations = append(violations, "description is missing or empty")
	}

	if len(violations) > 0 {
		preview, _ := json.Marshal(obj)
		return nil, &ValidationError{
			Violations: violations,
			Preview:    truncatePreview(string(preview)),
		}
	}

	var confidences []int
	if rawConfs, exists := obj["confidences"].([]any); exists {
		for _, rawConf := range rawConfs {
			if f, isNum := coerceNumber(rawConf); isNum && !math.IsNaN(f) && !math.IsInf(f, 0) {
				confidences = append(confidences, int(math.Round(f)))
			}
			if len(confidences) == len(categoryIDs) {
				break
			}
		}
	}

	explanation, _ := stringField(obj, "explanation")

	return &model.ClassificationResult{
		Type:        direction,
		CategoryID:  categoryIDs[0],
		CategoryIDs: categoryIDs,
		Confidence:  confidence,
		Confidences: confidences,
		Description: description,
		Explanation: explanation,
	}, nil
}
