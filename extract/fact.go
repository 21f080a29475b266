package extract

import "strings"

// ParseFactRewrite interprets a single-fact rewrite completion. The model is
// given the user's existing core-information blob and asked to return either
// the literal "none" (nothing worth keeping) or a complete replacement blob.
// There is no partial-merge logic: the returned text replaces the old blob
// wholesale.
//
// The second return value is false when no update should happen.
func ParseFactRewrite(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return "", false
	}
	return trimmed, true
}
