// Package extract converts raw language-model output into typed domain
// records. Model output is unreliable by nature, so every parse here degrades
// to a per-item default instead of returning an error to the caller.
package extract

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/carebridge/companiond/summaries"
)

// FallbackSummaryText is used when no JSON envelope can be located in the
// model output.
const FallbackSummaryText = "Unable to parse AI response"

// DailySummaryResult is the parsed form of a daily-summary completion.
type DailySummaryResult struct {
	Summary  string
	Scores   map[string]int
	Analysis string
}

// ParseDailySummary extracts summary text, per-category scores, and analysis
// text from raw model output.
//
// The candidate JSON object is the substring between the first '{' and the
// last '}'. When no such envelope exists (or it is not valid JSON), the whole
// response is treated as unstructured: summary falls back to
// FallbackSummaryText, every score defaults, and the raw response is kept as
// the analysis so nothing the model said is lost.
//
// Field access is independent per field: a missing or wrong-typed score
// defaults to summaries.DefaultScore without affecting its siblings, and
// numeric scores are clamped into [MinScore, MaxScore] rather than rejected.
func ParseDailySummary(raw string) DailySummaryResult {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return DailySummaryResult{
			Summary:  FallbackSummaryText,
			Scores:   summaries.DefaultScores(),
			Analysis: raw,
		}
	}

	body := raw[start : end+1]
	if !gjson.Valid(body) {
		return DailySummaryResult{
			Summary:  FallbackSummaryText,
			Scores:   summaries.DefaultScores(),
			Analysis: raw,
		}
	}

	scores := make(map[string]int, len(summaries.ScoreCategories))
	for _, key := range summaries.ScoreCategories {
		scores[key] = scoreField(gjson.Get(body, "scores."+key))
	}

	return DailySummaryResult{
		Summary:  gjson.Get(body, "summary").String(),
		Scores:   scores,
		Analysis: gjson.Get(body, "analysis").String(),
	}
}

// scoreField resolves one score value: absent or unparsable values default,
// anything numeric is clamped into range.
func scoreField(v gjson.Result) int {
	if !v.Exists() {
		return summaries.DefaultScore
	}
	switch v.Type {
	case gjson.Number:
		return summaries.ClampScore(int(v.Int()))
	case gjson.String:
		// Models occasionally quote their numbers.
		if n, err := strconv.Atoi(strings.TrimSpace(v.String())); err == nil {
			return summaries.ClampScore(n)
		}
	}
	return summaries.DefaultScore
}
