package mcp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/brendan.keane/apiconform/internal/suite"
)

// FilterResult is narrowed tool output with size metadata
type FilterResult struct {
	Content string         `json:"content"`
	Meta    map[string]any `json:"_meta"`
}

// estimateTokens approximates token count using chars/4
func estimateTokens(data string) int {
	return len(data) / 4
}

func sizeMeta(filter map[string]any, returned, source string) map[string]any {
	return map[string]any{
		"filter": filter,
		"tokens": map[string]any{
			"returned": estimateTokens(returned),
			"source":   estimateTokens(source),
		},
		"bytes": map[string]any{
			"returned": len(returned),
			"source":   len(source),
		},
	}
}

// filterRegex returns every match in raw with roughly contextLines lines of
// surrounding text. Overlapping windows are merged.
func filterRegex(raw, pattern string, contextLines int) (*FilterResult, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	// ~80 characters per line, never less than 100
	contextChars := max(contextLines*80, 100)

	matches := re.FindAllStringIndex(raw, -1)
	log.Debug().
		Int("input_bytes", len(raw)).
		Str("pattern", pattern).
		Int("matches", len(matches)).
		Msg("filtering resource body by regex")

	type window struct{ start, end int }
	var merged []window
	for _, m := range matches {
		w := window{start: max(0, m[0]-contextChars), end: min(len(raw), m[1]+contextChars)}
		if n := len(merged); n > 0 && w.start <= merged[n-1].end {
			merged[n-1].end = max(merged[n-1].end, w.end)
			continue
		}
		merged = append(merged, w)
	}

	blocks := make([]string, 0, len(merged))
	for i, w := range merged {
		excerpt := raw[w.start:w.end]
		if w.start > 0 {
			excerpt = "..." + excerpt
		}
		if w.end < len(raw) {
			excerpt += "..."
		}
		blocks = append(blocks, fmt.Sprintf("=== Match window %d (bytes %d-%d) ===\n%s", i+1, w.start, w.end, excerpt))
	}
	content := strings.Join(blocks, "\n\n")

	return &FilterResult{
		Content: content,
		Meta: sizeMeta(map[string]any{
			"type":           "regex",
			"pattern":        pattern,
			"total_matches":  len(matches),
			"merged_windows": len(merged),
		}, content, raw),
	}, nil
}

// filterJMESPath narrows a decoded body with a JMESPath expression
func filterJMESPath(body any, raw, expression string) (*FilterResult, error) {
	selected, err := suite.Select(expression, body)
	if err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(selected, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filtered result: %w", err)
	}
	content := string(out)

	count := 0
	if arr, ok := selected.([]any); ok {
		count = len(arr)
	} else if selected != nil {
		count = 1
	}

	return &FilterResult{
		Content: content,
		Meta: sizeMeta(map[string]any{
			"type":         "jmespath",
			"expression":   expression,
			"result_count": count,
		}, content, raw),
	}, nil
}
