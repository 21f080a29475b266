package reminders

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// Tag categorizes a reminder. Tags are drawn from a fixed enumeration;
// anything unrecognized falls back to TagOther.
type Tag string

const (
	TagMedication  Tag = "MEDICATION"
	TagAppointment Tag = "APPOINTMENT"
	TagHealth      Tag = "HEALTH"
	TagExercise    Tag = "EXERCISE"
	TagSocial      Tag = "SOCIAL"
	TagHobby       Tag = "HOBBY"
	TagHousehold   Tag = "HOUSEHOLD"
	TagOther       Tag = "OTHER"
)

// AllTags lists every known tag.
var AllTags = []Tag{
	TagMedication, TagAppointment, TagHealth, TagExercise,
	TagSocial, TagHobby, TagHousehold, TagOther,
}

// ParseTag matches a raw tag string case-insensitively against the known
// enumeration. Returns false when the tag is unrecognized.
func ParseTag(raw string) (Tag, bool) {
	candidate := Tag(strings.ToUpper(strings.TrimSpace(raw)))
	if lo.Contains(AllTags, candidate) {
		return candidate, true
	}
	return "", false
}

// ParseTags parses a comma-separated tag list. Unrecognized entries are
// skipped; when no entry is recognized (or the input is empty or the literal
// "null") the result is the single fallback TagOther.
func ParseTags(raw string) []Tag {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return []Tag{TagOther}
	}

	parts := strings.Split(raw, ",")
	tags := lo.Uniq(lo.FilterMap(parts, func(part string, _ int) (Tag, bool) {
		return ParseTag(part)
	}))
	if len(tags) == 0 {
		return []Tag{TagOther}
	}
	return tags
}

// Status indicates whether a reminder has been completed.
type Status string

const (
	StatusIncomplete Status = "INCOMPLETE"
	StatusComplete   Status = "COMPLETE"
)

// Reminder is a dated task for a user.
type Reminder struct {
	ID          string
	UserID      string
	Title       string
	Description string
	DueAt       time.Time
	Tags        []Tag
	Status      Status
	CreatedAt   time.Time
}
