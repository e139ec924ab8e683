package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// node is one step in a duck-typed walk over a decoded JSON tree. Provider
// envelopes are navigated defensively: any missing or mistyped level marks
// the node as absent instead of panicking.
type node struct {
	value any
	ok    bool
}

func rootNode(raw json.RawMessage) node {
	if len(raw) == 0 {
		return node{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return node{}
	}
	if v == nil {
		return node{}
	}
	return node{value: v, ok: true}
}

func (n node) key(k string) node {
	if !n.ok {
		return node{}
	}
	m, isMap := n.value.(map[string]any)
	if !isMap {
		return node{}
	}
	v, exists := m[k]
	if !exists || v == nil {
		return node{}
	}
	return node{value: v, ok: true}
}

func (n node) index(i int) node {
	if !n.ok {
		return node{}
	}
	s, isSlice := n.value.([]any)
	if !isSlice || i < 0 || i >= len(s) {
		return node{}
	}
	if s[i] == nil {
		return node{}
	}
	return node{value: s[i], ok: true}
}

func (n node) slice() ([]any, bool) {
	if !n.ok {
		return nil, false
	}
	s, isSlice := n.value.([]any)
	return s, isSlice
}

func (n node) str() (string, bool) {
	if !n.ok {
		return "", false
	}
	s, isStr := n.value.(string)
	return s, isStr
}

// ExtractText obtains the best-effort UTF-8 text payload from a provider
// envelope. It understands the Gemini candidates shape (all text fragments
// under the first candidate's content parts, concatenated in order) and the
// chat-completions choices shape.
func ExtractText(raw json.RawMessage) (string, error) {
	root := rootNode(raw)
	if !root.ok {
		return "", &ExtractionError{Reason: "response is empty or not valid JSON"}
	}

	// Gemini shape: candidates[0].content.parts[*].text
	if candidates, isSlice := root.key("candidates").slice(); isSlice {
		if len(candidates) == 0 {
			return "", &ExtractionError{Reason: "candidate list is empty"}
		}
		content := root.key("candidates").index(0).key("content")
		if !content.ok {
			return "", &ExtractionError{Reason: "first candidate has no content"}
		}
		parts, partsOK := content.key("parts").slice()
		if !partsOK || len(parts) == 0 {
			return "", &ExtractionError{Reason: "candidate content has no parts"}
		}
		var sb strings.Builder
		for i := range parts {
			if text, isStr := content.key("parts").index(i).key("text").str(); isStr {
				sb.WriteString(text)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			return "", &ExtractionError{Reason: "concatenated candidate text is empty"}
		}
		return text, nil
	}

	// Chat-completions shape: choices[0].message.content
	if choices, isSlice := root.key("choices").slice(); isSlice {
		if len(choices) == 0 {
			return "", &ExtractionError{Reason: "choice list is empty"}
		}
		content, isStr := root.key("choices").index(0).key("message").key("content").str()
		if !isStr {
			return "", &ExtractionError{Reason: "first choice has no message content"}
		}
		content = strings.TrimSpace(content)
		if content == "" {
			return "", &ExtractionError{Reason: "choice message content is empty"}
		}
		return content, nil
	}

	return "", &ExtractionError{Reason: "response has neither candidates nor choices"}
}

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	bracePairRe   = regexp.MustCompile(`(?s)\{.*?\}`)

	trailingCommaObjRe = regexp.MustCompile(`,\s*}`)
	trailingCommaArrRe = regexp.MustCompile(`,\s*]`)
	whitespaceRunRe    = regexp.MustCompile(`\s+`)
)

// jsonStrategy attempts to recover a JSON value from model output text.
type jsonStrategy struct {
	name string
	fn   func(string) (any, error)
}

// jsonStrategies are tried in order of decreasing strictness; the first
// success wins. Providers inconsistently wrap JSON in prose, markdown
// fences, or trailing commentary, so a single strict parse fails far too
// often in practice.
var jsonStrategies = []jsonStrategy{
	{name: "direct", fn: parseDirect},
	{name: "fenced_block", fn: parseFencedBlock},
	{name: "brace_pair", fn: parseBracePair},
	{name: "balanced_scan", fn: parseBalancedScan},
	{name: "repair", fn: parseRepaired},
}

// ExtractJSON obtains the first parseable JSON value embedded in text.
func ExtractJSON(text string) (any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &ParseError{Preview: ""}
	}

	for _, strategy := range jsonStrategies {
		value, err := strategy.fn(trimmed)
		if err == nil {
			return value, nil
		}
	}

	return nil, &ParseError{Preview: truncatePreview(trimmed)}
}

func parseJSONValue(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// parseDirect attempts to parse the entire trimmed text as JSON.
func parseDirect(text string) (any, error) {
	return parseJSONValue(text)
}

// parseFencedBlock parses the inner content of the first markdown code
// fence, optionally tagged json.
func parseFencedBlock(text string) (any, error) {
	match := fencedBlockRe.FindStringSubmatch(text)
	if match == nil {
		return nil, &ParseError{Preview: "no fenced block"}
	}
	return parseJSONValue(strings.TrimSpace(match[1]))
}

// parseBracePair tries the shortest substring from the first { to the next
// }, then falls back to the greedy first-{-to-last-} span.
func parseBracePair(text string) (any, error) {
	if match := bracePairRe.FindString(text); match != "" {
		if v, err := parseJSONValue(match); err == nil {
			return v, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, &ParseError{Preview: "no brace pair"}
	}
	return parseJSONValue(text[start : end+1])
}

// parseBalancedScan walks the text line by line tracking brace depth to
// find the first top-level balanced {...} block, which may span multiple
// lines.
func parseBalancedScan(text string) (any, error) {
	lines := strings.Split(text, "\n")
	startLine := -1
	endLine := -1
	depth := 0

	for i, line := range lines {
		opens := strings.Count(line, "{")
		closes := strings.Count(line, "}")
		if startLine == -1 {
			if opens == 0 {
				continue
			}
			startLine = i
		}
		depth += opens - closes
		if depth <= 0 {
			endLine = i
			break
		}
	}

	if startLine == -1 || endLine == -1 {
		return nil, &ParseError{Preview: "no balanced block"}
	}
	block := strings.Join(lines[startLine:endLine+1], "\n")

	start := strings.Index(block, "{")
	end := strings.LastIndex(block, "}")
	if start == -1 || end <= start {
		return nil, &ParseError{Preview: "no balanced block"}
	}
	return parseJSONValue(block[start : end+1])
}

// parseRepaired extracts the outermost {...} or [...] span and applies
// textual repairs for the malformations models emit most: trailing commas,
// single quotes, and literal newlines inside the value.
func parseRepaired(text string) (any, error) {
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "}]")
	if start == -1 || end <= start {
		return nil, &ParseError{Preview: "no JSON delimiters"}
	}

	repaired := text[start : end+1]
	repaired = trailingCommaObjRe.ReplaceAllString(repaired, "}")
	repaired = trailingCommaArrRe.ReplaceAllString(repaired, "]")
	repaired = strings.ReplaceAll(repaired, "'", `"`)
	repaired = strings.ReplaceAll(repaired, "\n", " ")
	repaired = strings.ReplaceAll(repaired, "\t", " ")
	repaired = whitespaceRunRe.ReplaceAllString(repaired, " ")

	return parseJSONValue(repaired)
}

// ParseEnvelope runs the full extraction pipeline: envelope to text, text
// to the first parseable JSON value.
func ParseEnvelope(raw json.RawMessage) (any, error) {
	text, err := ExtractText(raw)
	if err != nil {
		return nil, err
	}
	return ExtractJSON(text)
}
