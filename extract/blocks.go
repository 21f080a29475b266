package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/carebridge/companiond/reminders"
)

// ReminderCandidate is one parsed labeled block, ready to be persisted as a
// reminder. Either the block's date parses and the candidate is returned, or
// the block is discarded entirely; there are no half-valid candidates.
type ReminderCandidate struct {
	Title       string
	Description string
	DueAt       time.Time
	Tags        []reminders.Tag
}

// bareDateHour is the fixed time-of-day assigned to date-only blocks.
const bareDateHour = 9

var blockSeparator = regexp.MustCompile(`\n\s*\n`)

// reminderDateLayouts are the accepted Date formats, tried in order:
// ISO-8601 with zone, local date-time, and bare date.
var reminderDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseReminderBlocks parses zero or more labeled reminder blocks of the form
//
//	Task: <title>
//	Date: <date-text>
//	Description: <text>
//	Tags: <comma-separated>
//
// separated by blank lines. The literal response "none" (case and whitespace
// insensitive) and empty responses mean zero reminders. Blocks are parsed
// independently: a block whose date fails every accepted format is dropped
// without affecting its siblings.
func ParseReminderBlocks(raw string) []ReminderCandidate {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return nil
	}

	var out []ReminderCandidate
	for _, block := range blockSeparator.Split(trimmed, -1) {
		if candidate, ok := parseBlock(block); ok {
			out = append(out, candidate)
		}
	}
	return out
}

// parseBlock parses one labeled block. It returns false when the block has no
// usable date, which discards the candidate entirely.
func parseBlock(block string) (ReminderCandidate, bool) {
	var (
		candidate ReminderCandidate
		dateText  string
		sawDate   bool
		sawTags   bool
		tagsText  string
	)

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case hasLabel(line, "Task:"):
			candidate.Title = labelValue(line, "Task:")
		case hasLabel(line, "Date:"):
			dateText = labelValue(line, "Date:")
			sawDate = true
		case hasLabel(line, "Description:"):
			candidate.Description = labelValue(line, "Description:")
		case hasLabel(line, "Tags:"):
			tagsText = labelValue(line, "Tags:")
			sawTags = true
		}
	}

	if !sawDate {
		return ReminderCandidate{}, false
	}
	dueAt, ok := parseReminderDate(dateText)
	if !ok {
		return ReminderCandidate{}, false
	}
	candidate.DueAt = dueAt

	// Absent, empty, or unrecognized tags all fall back to OTHER.
	if sawTags {
		candidate.Tags = reminders.ParseTags(tagsText)
	} else {
		candidate.Tags = []reminders.Tag{reminders.TagOther}
	}
	return candidate, true
}

func hasLabel(line, label string) bool {
	return len(line) >= len(label) && strings.EqualFold(line[:len(label)], label)
}

func labelValue(line, label string) string {
	return strings.TrimSpace(line[len(label):])
}

// parseReminderDate tries each accepted layout in order. Bare dates get the
// fixed 09:00 UTC time-of-day.
func parseReminderDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, layout := range reminderDateLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.Add(bareDateHour * time.Hour)
		}
		return t, true
	}
	return time.Time{}, false
}
