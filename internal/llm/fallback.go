package llm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/yuchingtsai/bookkeep/internal/model"
)

// Fallback confidence tiers. Expense keyword sets are more specific than
// the income terms, so a match there earns a higher tier.
const (
	fallbackIncomeConfidence  = 60
	fallbackExpenseConfidence = 70
	fallbackDefaultConfidence = 25
)

// keywordSet maps lowercase substrings to one category. Sets are checked
// in declaration order and the first match against a category present in
// the taxonomy wins.
type keywordSet struct {
	categoryID string
	direction  model.Direction
	keywords   []string
}

var incomeKeywordSets = []keywordSet{
	{categoryID: "salary", direction: model.DirectionIncome, keywords: []string{
		"薪資", "薪水", "月薪", "工資", "salary", "payroll", "paycheck",
	}},
	{categoryID: "bonus", direction: model.DirectionIncome, keywords: []string{
		"獎金", "年終", "紅包", "bonus",
	}},
	{categoryID: "investment", direction: model.DirectionIncome, keywords: []string{
		"股息", "股利", "利息", "配息", "dividend", "interest", "投資",
	}},
}

var expenseKeywordSets = []keywordSet{
	{categoryID: "food", direction: model.DirectionExpense, keywords: []string{
		"早餐", "午餐", "晚餐", "宵夜", "咖啡", "飲料", "奶茶", "餐", "飯", "麵", "吃",
		"星巴克", "麥當勞", "肯德基", "全家", "7-11",
		"starbucks", "mcdonald", "kfc", "lunch", "dinner", "breakfast", "coffee", "food", "meal",
	}},
	{categoryID: "transport", direction: model.DirectionExpense, keywords: []string{
		"計程車", "公車", "捷運", "高鐵", "火車", "加油", "停車", "uber", "交通", "車票",
		"taxi", "bus", "train", "metro", "gas", "parking", "transport",
	}},
	{categoryID: "shopping", direction: model.DirectionExpense, keywords: []string{
		"購物", "網購", "衣服", "鞋", "包", "盲盒", "手辦", "買",
		"蘋果", "三星", "小米", "ikea", "apple", "samsung", "shopping", "mall", "store",
	}},
	{categoryID: "entertainment", direction: model.DirectionExpense, keywords: []string{
		"電影", "遊戲", "唱歌", "ktv", "演唱會", "旅遊", "娛樂",
		"netflix", "steam", "nintendo", "movie", "game", "concert", "entertainment",
	}},
	{categoryID: "healthcare", direction: model.DirectionExpense, keywords: []string{
		"醫院", "診所", "掛號", "藥", "健保", "保險", "看病", "健身",
		"doctor", "hospital", "clinic", "medicine", "pharmacy", "gym", "health",
	}},
	{categoryID: "utilities", direction: model.DirectionExpense, keywords: []string{
		"房租", "水費", "電費", "瓦斯", "網路費", "電話費", "管理費",
		"rent", "water bill", "electricity", "utility", "internet", "phone bill",
	}},
}

// FallbackClassifier produces a best-effort classification without any
// network dependency. It is total: every description yields a structurally
// valid result, even against an empty taxonomy.
type FallbackClassifier struct {
	corrections map[string]model.Correction
	mu          sync.RWMutex
}

// NewFallbackClassifier creates a keyword-based classifier.
func NewFallbackClassifier() *FallbackClassifier {
	return &FallbackClassifier{corrections: make(map[string]model.Correction)}
}

// SetCorrections replaces the stored per-description overrides. Keys are
// matched against the lowercased trimmed description, exactly.
func (f *FallbackClassifier) SetCorrections(corrections []model.Correction) {
	replacement := make(map[string]model.Correction, len(corrections))
	for _, c := range corrections {
		replacement[strings.ToLower(strings.TrimSpace(c.Description))] = c
	}

	f.mu.Lock()
	f.corrections = replacement
	f.mu.Unlock()
}

func (f *FallbackClassifier) lookupCorrection(normalized string) (model.Correction, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.corrections[normalized]
	return c, ok
}

// Classify returns a keyword-based result for the description. The reason
// the fallback was invoked is preserved in ErrorMessage for observability.
func (f *FallbackClassifier) Classify(description string, taxonomy *model.Taxonomy, reason string) *model.ClassificationResult {
	trimmed := strings.TrimSpace(description)
	normalized := strings.ToLower(trimmed)

	if correction, found := f.lookupCorrection(normalized); found {
		if taxonomy.Contains(correction.CategoryID, correction.Direction) {
			return &model.ClassificationResult{
				Type:         correction.Direction,
				CategoryID:   correction.CategoryID,
				CategoryIDs:  []string{correction.CategoryID},
				Confidence:   100,
				Description:  trimmed,
				Explanation:  "matched a previous manual correction for this description",
				ErrorMessage: reason,
				Metadata:     model.ResultMetadata{UsedFallback: true},
			}
		}
	}

	// Income keywords first, then expense categories in priority order.
	for _, set := range incomeKeywordSets {
		if matchKeyword(normalized, set.keywords) == "" {
			continue
		}
		if !taxonomy.Contains(set.categoryID, set.direction) {
			continue
		}
		return f.buildResult(set, trimmed, fallbackIncomeConfidence, matchKeyword(normalized, set.keywords), reason)
	}
	for _, set := range expenseKeywordSets {
		if matchKeyword(normalized, set.keywords) == "" {
			continue
		}
		if !taxonomy.Contains(set.categoryID, set.direction) {
			continue
		}
		return f.buildResult(set, trimmed, fallbackExpenseConfidence, matchKeyword(normalized, set.keywords), reason)
	}

	return f.defaultResult(trimmed, taxonomy, fallbackDefaultConfidence, reason)
}

// EmptyInputResult is the zero-confidence default for an empty description;
// the network path is never invoked for empty input.
func (f *FallbackClassifier) EmptyInputResult(taxonomy *model.Taxonomy, reason string) *model.ClassificationResult {
	return f.defaultResult("", taxonomy, 0, reason)
}

func (f *FallbackClassifier) buildResult(set keywordSet, description string, confidence int, keyword, reason string) *model.ClassificationResult {
	return &model.ClassificationResult{
		Type:         set.direction,
		CategoryID:   set.categoryID,
		CategoryIDs:  []string{set.categoryID},
		Confidence:   confidence,
		Description:  description,
		Explanation:  fmt.Sprintf("matched keyword %q", keyword),
		ErrorMessage: reason,
		Metadata:     model.ResultMetadata{UsedFallback: true},
	}
}

// defaultResult picks the first available expense category, or a synthetic
// placeholder when the taxonomy is empty. The placeholder case should not
// occur in practice but must not crash.
func (f *FallbackClassifier) defaultResult(description string, taxonomy *model.Taxonomy, confidence int, reason string) *model.ClassificationResult {
	categoryID := "other"
	if expenses := taxonomy.ForDirection(model.DirectionExpense); len(expenses) > 0 {
		categoryID = expenses[0].ID
	}

	return &model.ClassificationResult{
		Type:         model.DirectionExpense,
		CategoryID:   categoryID,
		CategoryIDs:  []string{categoryID},
		Confidence:   confidence,
		Description:  description,
		Explanation:  "no keyword matched; defaulted to the first expense category",
		ErrorMessage: reason,
		Metadata:     model.ResultMetadata{UsedFallback: true},
	}
}

func matchKeyword(normalized string, keywords []string) string {
	for _, keyword := range keywords {
		if strings.Contains(normalized, keyword) {
			return keyword
		}
	}
	return ""
}
