package summaries

import (
	"errors"
	"fmt"
	"time"
)

// ScoreCategories is the fixed set of daily-summary score keys.
var ScoreCategories = []string{"health", "exercise", "mental", "social", "productivity"}

const (
	// DefaultScore is used when a score is absent or unparsable.
	DefaultScore = 5
	// MinScore and MaxScore bound every category score.
	MinScore = 1
	MaxScore = 10
)

// ErrCannotGenerate is the base condition for summary-generation precondition
// failures. The specific sentinels below all wrap it.
var ErrCannotGenerate = errors.New("cannot generate summary")

var (
	// ErrNotPastDate means the requested date is today or in the future in
	// the caller's local time.
	ErrNotPastDate = fmt.Errorf("%w: date is today or in the future", ErrCannotGenerate)
	// ErrSummaryExists means a summary was already generated for that date.
	ErrSummaryExists = fmt.Errorf("%w: summary already exists", ErrCannotGenerate)
	// ErrNoTurns means no chat turns fall inside the date's activity window.
	ErrNoTurns = fmt.Errorf("%w: no chat activity in window", ErrCannotGenerate)
)

// ErrNotFound is returned when a summary does not exist.
var ErrNotFound = errors.New("summary not found")

// DailySummary is a generated analysis of one user's day. There is at most
// one per (user, date); a persisted summary is never regenerated in place.
type DailySummary struct {
	ID           string
	UserID       string
	Date         string // local civil date, yyyy-MM-dd
	SummaryText  string
	Scores       map[string]int
	AnalysisText string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DefaultScores returns a full score map with every category at DefaultScore.
func DefaultScores() map[string]int {
	scores := make(map[string]int, len(ScoreCategories))
	for _, key := range ScoreCategories {
		scores[key] = DefaultScore
	}
	return scores
}

// ClampScore forces a score into the [MinScore, MaxScore] range.
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
