package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/carebridge/companiond/conversations"
	"github.com/carebridge/companiond/reminders"
)

// sectionPlaceholder renders in place of any context section that has no
// data, so the model always sees the same template shape.
const sectionPlaceholder = "none"

// chatPromptTemplate fixes the section order of the assembled chat prompt:
// profile, memories, chat history, reminders, location, question, then
// behavioral instructions.
const chatPromptTemplate = `Today is %s.
You are a personalised virtual assistant designed for elderly care. Your role is to respond supportively and clearly, considering the user's health, personal background, daily context, and emotional needs.

--- USER PROFILE (Long-Term Core Info) ---
%s

--- RECENT MEMORIES (Contextual Events) ---
%s

--- CHAT HISTORY (Recent Conversation) ---
%s

--- UPCOMING REMINDERS (Tasks to Remember, include time if needed) ---
%s

--- USER LOCATION (If available) ---
%s

--- USER QUESTION ---
The user said: "%s"

IMPORTANT: You can automatically create reminders for users when they mention tasks or appointments. If someone asks you to remind them of something or mentions a future task, reassure them that you will remember it for them.

Respond in a way that shows:
- Kindness and patience
- Clear and simple language, suitable for older adults
- No technical jargon and no emojis
- Warm, natural-sounding phrasing
- Keep responses short (2-3 sentences) unless detail is genuinely needed
- Use the user's location when it is relevant
- When users mention tasks, appointments, or ask for reminders, confirm that you'll remember it for them`

// ComposeChatPrompt fuses the context fragments into a single prompt string.
// It is purely string assembly: every argument is already rendered text, and
// empty optional sections become the literal placeholder "none".
func ComposeChatPrompt(today, coreInfo, memories, chatHistory, reminderBlock, locationText, query string) string {
	return fmt.Sprintf(chatPromptTemplate,
		today,
		orPlaceholder(coreInfo),
		orPlaceholder(memories),
		orPlaceholder(chatHistory),
		orPlaceholder(reminderBlock),
		orPlaceholder(locationText),
		query,
	)
}

func orPlaceholder(section string) string {
	if strings.TrimSpace(section) == "" {
		return sectionPlaceholder
	}
	return section
}

// FormatChatHistory renders turns as alternating "User:"/"Assistant:" lines,
// oldest first.
func FormatChatHistory(turns []conversations.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		if t.FromUser {
			sb.WriteString("User: ")
		} else {
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(t.Text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// FormatTimedChatHistory renders turns as "[HH:mm] User|Assistant: text"
// lines for daily-summary analysis. Times are rendered in UTC.
func FormatTimedChatHistory(turns []conversations.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		sender := "Assistant"
		if t.FromUser {
			sender = "User"
		}
		fmt.Fprintf(&sb, "[%s] %s: %s\n", t.CreatedAt.UTC().Format("15:04"), sender, t.Text)
	}
	return sb.String()
}

// FormatUpcomingReminders renders a block summarising upcoming reminders, or
// "none" when there are none.
func FormatUpcomingReminders(items []reminders.Reminder) string {
	if len(items) == 0 {
		return sectionPlaceholder
	}

	var sb strings.Builder
	for _, r := range items {
		tags := make([]string, len(r.Tags))
		for i, tag := range r.Tags {
			tags[i] = string(tag)
		}
		fmt.Fprintf(&sb, "Title: %s\nDescription: %s\nDue: %s\nTags: %s\nStatus: %s\n\n",
			r.Title, r.Description, r.DueAt.UTC().Format(time.RFC3339), strings.Join(tags, ", "), r.Status)
	}
	return strings.TrimSpace(sb.String())
}

// welcomeTemplate opens a session without any conversation context.
const welcomeTemplate = `Today is %s.
You are a personalised virtual assistant designed for elderly care.

--- USER PROFILE (Long-Term Core Info) ---
%s

Greet the user warmly to start today's conversation. Keep it to one or two short sentences, use clear and simple language with no emojis, and if the profile suggests something personal to ask about, ask about it.`

// ComposeWelcomePrompt builds the session-opening greeting prompt.
func ComposeWelcomePrompt(today, coreInfo string) string {
	return fmt.Sprintf(welcomeTemplate, today, orPlaceholder(coreInfo))
}

// summaryPromptTemplate asks for the JSON envelope the extractor expects.
const summaryPromptTemplate = `Analyze the following chat history from %s and provide a comprehensive daily summary. Please respond in the following JSON format:
{
  "summary": "A concise summary of what the person did and discussed today",
  "scores": {
    "health": <score 1-10>,
    "exercise": <score 1-10>,
    "mental": <score 1-10>,
    "social": <score 1-10>,
    "productivity": <score 1-10>
  },
  "analysis": "Detailed analysis of their day including mood, activities, and insights"
}

Chat History:
%s`

// ComposeSummaryPrompt builds the daily-summary analysis prompt for a date
// and its compiled chat history.
func ComposeSummaryPrompt(date, compiledHistory string) string {
	return fmt.Sprintf(summaryPromptTemplate, date, compiledHistory)
}

// reminderExtractionTemplate instructs the model to emit labeled blocks that
// ParseReminderBlocks understands, or the literal "none".
const reminderExtractionTemplate = `Today is %s.
You extract reminders from a message sent by an elderly user to their care assistant.

For every concrete task, appointment, or thing the user wants to be reminded of, output one block in exactly this format:

Task: <short title>
Date: <when it is due>
Description: <one sentence of detail>
Tags: <comma-separated categories>

Rules:
- Separate blocks with one blank line.
- Date must be one of: ISO-8601 with timezone (2024-01-15T09:00:00Z), "yyyy-MM-dd HH:mm", or "yyyy-MM-dd".
- Tags must be drawn from: MEDICATION, APPOINTMENT, HEALTH, EXERCISE, SOCIAL, HOBBY, HOUSEHOLD, OTHER.
- If the message contains nothing to remember, respond with exactly: none
- Output only the blocks or "none", with no other text.

The user said: "%s"`

// ComposeReminderExtractionPrompt builds the reminder-extraction prompt for a
// raw user message.
func ComposeReminderExtractionPrompt(today, userMessage string) string {
	return fmt.Sprintf(reminderExtractionTemplate, today, userMessage)
}

// factRewriteTemplate asks for a wholesale rewrite of the core-information
// blob, or the literal "none" when the exchange adds nothing durable.
const factRewriteTemplate = `You maintain the long-term core profile of an elderly user for their care assistant.

The user's current core information is:
%s

The user just said:
"%s"

The assistant replied:
"%s"

If this exchange reveals durable personal facts (health conditions, family, routines, preferences, important life details), rewrite the COMPLETE core information so it includes them. Return the full updated text, not just the additions.

If nothing in this exchange is worth keeping long-term, respond with exactly: none`

// ComposeFactRewritePrompt builds the background core-fact rewrite prompt.
func ComposeFactRewritePrompt(existingBlob, userMessage, aiResponse string) string {
	return fmt.Sprintf(factRewriteTemplate, orPlaceholder(existingBlob), userMessage, aiResponse)
}

// memorySnippetTemplate asks for one episodic memory sentence, or "none".
const memorySnippetTemplate = `You maintain episodic memories of an elderly user for their care assistant.

The user just said:
"%s"

The assistant replied:
"%s"

If this exchange describes a specific event, plan, or feeling worth recalling later, describe it as a single self-contained sentence in the third person.

If there is nothing episodic worth remembering, respond with exactly: none`

// ComposeMemorySnippetPrompt builds the background episodic-memory prompt.
func ComposeMemorySnippetPrompt(userMessage, aiResponse string) string {
	return fmt.Sprintf(memorySnippetTemplate, userMessage, aiResponse)
}

// manualCoreInfoTemplate merges caller-provided information into the blob.
const manualCoreInfoTemplate = `You maintain the long-term core profile of an elderly user for their care assistant.

The user's current core information is:
%s

A caregiver added this information:
"%s"

Rewrite the COMPLETE core information so it incorporates the new information. Return only the full updated text.`

// ComposeManualCoreInfoPrompt builds the manual core-information merge prompt.
func ComposeManualCoreInfoPrompt(existingBlob, newInfo string) string {
	return fmt.Sprintf(manualCoreInfoTemplate, orPlaceholder(existingBlob), newInfo)
}
