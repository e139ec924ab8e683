package llm

import (
	"fmt"
	"strings"

	"github.com/yuchingtsai/bookkeep/internal/model"
)

// renderCategoryList renders taxonomy entries for one direction as
// "id: name" lines, limited to hinted ids when a hint list is present.
func renderCategoryList(taxonomy *model.Taxonomy, direction model.Direction, hint []string) string {
	hinted := make(map[string]bool, len(hint))
	for _, id := range hint {
		hinted[id] = true
	}

	var sb strings.Builder
	for _, cat := range taxonomy.ForDirection(direction) {
		if len(hint) > 0 && !hinted[cat.ID] {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s\n", cat.ID, cat.Name)
	}
	if sb.Len() == 0 {
		return "(none)\n"
	}
	return sb.String()
}

// BuildClassificationPrompt renders the instruction string for classifying
// a transaction description. Deterministic over its inputs and total over a
// non-empty taxonomy; the worked examples improve accuracy but downstream
// parsing does not depend on them.
func BuildClassificationPrompt(req model.ClassificationRequest, taxonomy *model.Taxonomy) string {
	incomeList := renderCategoryList(taxonomy, model.DirectionIncome, req.Hint)
	expenseList := renderCategoryList(taxonomy, model.DirectionExpense, req.Hint)

	return fmt.Sprintf(`You are a bookkeeping assistant. Classify the transaction description below, choosing category ids STRICTLY from the allowed lists.

Transaction description: %q

Allowed income categories (use only when the transaction is money coming in):
%s
Allowed expense categories (use only when the transaction is money going out):
%s
Respond with ONLY a JSON object in exactly this shape, no surrounding text:
{
  "type": "income" or "expense",
  "categoryIds": ["primary id", "optional secondary id", "optional tertiary id"],
  "confidence": number from 0 to 100,
  "description": "a short note combining one behavior word (午餐, 交通, 購物, 飲料, 娛樂...) with the subject (brand, place, or item) and the amount",
  "explanation": "why this category was chosen"
}

Rules:
1. categoryIds must contain 1 to 3 ids from the allowed list matching "type", most likely first.
2. The note must stay short: behavior word + subject + amount, no verbs or filler words.
3. Correct obvious brand misspellings (三猩→三星, 蘋果→Apple, 星巴克→Starbucks, 麥當勞→McDonald).
4. Keep the amount exactly as written in the description.
5. Return ONLY the JSON object.

Examples:
描述: "今天午餐吃三猩100元"
→ {"type": "expense", "categoryIds": ["food"], "confidence": 90, "description": "午餐 三星 100元", "explanation": "餐飲消費"}
描述: "星巴克買飲料120元"
→ {"type": "expense", "categoryIds": ["food"], "confidence": 95, "description": "飲料 Starbucks 120元", "explanation": "飲料消費"}
描述: "薪資入帳35000元"
→ {"type": "income", "categoryIds": ["salary"], "confidence": 95, "description": "薪資 35000元", "explanation": "固定薪資收入"}`,
		req.Normalized(),
		incomeList,
		expenseList)
}
