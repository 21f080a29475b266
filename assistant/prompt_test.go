package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/carebridge/companiond/conversations"
	"github.com/carebridge/companiond/reminders"
)

func TestComposeChatPromptSectionOrder(t *testing.T) {
	prompt := ComposeChatPrompt(
		"2024-04-01",
		"core info here",
		"memory one",
		"User: hi",
		"Title: pills",
		"Leeds",
		"how are you",
	)

	sections := []string{
		"Today is 2024-04-01.",
		"--- USER PROFILE",
		"core info here",
		"--- RECENT MEMORIES",
		"memory one",
		"--- CHAT HISTORY",
		"User: hi",
		"--- UPCOMING REMINDERS",
		"Title: pills",
		"--- USER LOCATION",
		"Leeds",
		"--- USER QUESTION",
		`The user said: "how are you"`,
	}

	last := -1
	for _, section := range sections {
		idx := strings.Index(prompt, section)
		if idx < 0 {
			t.Fatalf("prompt missing section %q", section)
		}
		if idx < last {
			t.Errorf("section %q out of order", section)
		}
		last = idx
	}
}

func TestComposeChatPromptEmptySectionsBecomeNone(t *testing.T) {
	prompt := ComposeChatPrompt("2024-04-01", "", "  ", "", "", "", "hello")

	// Every optional section renders the placeholder.
	if got := strings.Count(prompt, "\nnone\n"); got != 5 {
		t.Errorf("expected 5 placeholder sections, got %d:\n%s", got, prompt)
	}
}

func TestFormatChatHistory(t *testing.T) {
	turns := []conversations.Turn{
		{Text: "hello", FromUser: true},
		{Text: "hi there", FromUser: false},
		{Text: "how are you", FromUser: true},
	}

	got := FormatChatHistory(turns)
	want := "User: hello\nAssistant: hi there\nUser: how are you"
	if got != want {
		t.Errorf("FormatChatHistory = %q, want %q", got, want)
	}
}

func TestFormatTimedChatHistory(t *testing.T) {
	at := time.Date(2024, 4, 1, 15, 4, 0, 0, time.UTC)
	turns := []conversations.Turn{
		{Text: "lunch was nice", FromUser: true, CreatedAt: at},
		{Text: "glad to hear it", FromUser: false, CreatedAt: at.Add(time.Minute)},
	}

	got := FormatTimedChatHistory(turns)
	want := "[15:04] User: lunch was nice\n[15:05] Assistant: glad to hear it\n"
	if got != want {
		t.Errorf("FormatTimedChatHistory = %q, want %q", got, want)
	}
}

func TestFormatUpcomingReminders(t *testing.T) {
	if got := FormatUpcomingReminders(nil); got != "none" {
		t.Errorf("empty reminders = %q, want none", got)
	}

	items := []reminders.Reminder{
		{
			Title:       "Take pills",
			Description: "Morning dose",
			DueAt:       time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC),
			Tags:        []reminders.Tag{reminders.TagMedication, reminders.TagHealth},
			Status:      reminders.StatusIncomplete,
		},
	}
	got := FormatUpcomingReminders(items)
	for _, fragment := range []string{
		"Title: Take pills",
		"Description: Morning dose",
		"Due: 2024-04-02T09:00:00Z",
		"Tags: MEDICATION, HEALTH",
		"Status: INCOMPLETE",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("missing fragment %q in:\n%s", fragment, got)
		}
	}
}
