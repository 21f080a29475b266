// Package assistant orchestrates the context-assembly and extraction
// pipeline: it fuses stored context into prompts, calls the generation
// gateway, and turns model output back into typed records.
package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge/companiond/conversations"
	"github.com/carebridge/companiond/extract"
	"github.com/carebridge/companiond/llm"
	"github.com/carebridge/companiond/memory"
	"github.com/carebridge/companiond/profile"
	"github.com/carebridge/companiond/reminders"
	"github.com/carebridge/companiond/runtime"
	"github.com/carebridge/companiond/summaries"
)

const (
	// historyDepth is how many recent turns feed the chat prompt.
	historyDepth = 10
	// upcomingDepth is how many upcoming reminders feed the chat prompt.
	upcomingDepth = 10
)

// Service sequences the assistant use-cases: answering a chat turn,
// extracting reminders, maintaining long-term memory, and generating daily
// summaries.
type Service struct {
	turns     *conversations.Store
	reminders *reminders.Store
	summaries *summaries.Store
	profiles  *profile.Store
	memory    *memory.Client
	gateway   *llm.Gateway
	pool      *runtime.Pool
	logger    zerolog.Logger
}

// NewService wires the orchestrator.
func NewService(
	turns *conversations.Store,
	reminderStore *reminders.Store,
	summaryStore *summaries.Store,
	profiles *profile.Store,
	memoryClient *memory.Client,
	gateway *llm.Gateway,
	pool *runtime.Pool,
	logger zerolog.Logger,
) *Service {
	return &Service{
		turns:     turns,
		reminders: reminderStore,
		summaries: summaryStore,
		profiles:  profiles,
		memory:    memoryClient,
		gateway:   gateway,
		pool:      pool,
		logger:    logger.With().Str("component", "assistant").Logger(),
	}
}

// AnswerTurn handles one chat turn: gather context sequentially, compose the
// prompt, generate, persist the exchange, and return the answer. Reminder and
// insight extraction for the same turn run as background tasks whose failure
// never affects the returned answer.
//
// Any error on this synchronous path is user-visible: there is no meaningful
// fallback for "no answer at all".
func (s *Service) AnswerTurn(ctx context.Context, userID, query, locationText string) (string, error) {
	logger := s.logger.With().Str("user_id", userID).Logger()
	turnStart := time.Now()

	stage := time.Now()
	coreInfo, err := s.profiles.CoreInformation(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load core information: %w", err)
	}
	logger.Debug().Dur("elapsed", time.Since(stage)).Msg("Loaded core information")

	stage = time.Now()
	recent, err := s.turns.Recent(ctx, userID, historyDepth)
	if err != nil {
		return "", fmt.Errorf("load chat history: %w", err)
	}
	logger.Debug().Dur("elapsed", time.Since(stage)).Int("turns", len(recent)).Msg("Loaded chat history")

	stage = time.Now()
	upcoming, err := s.reminders.Upcoming(ctx, userID, time.Now(), upcomingDepth)
	if err != nil {
		return "", fmt.Errorf("load upcoming reminders: %w", err)
	}
	logger.Debug().Dur("elapsed", time.Since(stage)).Int("reminders", len(upcoming)).Msg("Loaded upcoming reminders")

	// Recall degrades to "none" internally; it never fails the turn.
	stage = time.Now()
	memories := s.memory.Recall(ctx, userID, query, memory.DefaultTopK)
	logger.Debug().Dur("elapsed", time.Since(stage)).Msg("Recalled memories")

	today := time.Now().UTC().Format("2006-01-02")
	prompt := ComposeChatPrompt(
		today,
		coreInfo,
		memories,
		FormatChatHistory(recent),
		FormatUpcomingReminders(upcoming),
		locationText,
		query,
	)

	// The user turn is persisted before generation so that a follow-up
	// turn's last-N context always sees this message.
	if err := s.turns.AppendUserTurn(ctx, userID, query); err != nil {
		return "", fmt.Errorf("persist user turn: %w", err)
	}

	stage = time.Now()
	answer, err := s.gateway.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	logger.Debug().Dur("elapsed", time.Since(stage)).Msg("Generated answer")

	if err := s.turns.AppendAssistantTurn(ctx, userID, answer); err != nil {
		return "", fmt.Errorf("persist assistant turn: %w", err)
	}

	s.submitBackgroundExtraction(userID, query, answer)

	logger.Info().Dur("elapsed", time.Since(turnStart)).Msg("Answered chat turn")
	return answer, nil
}

// submitBackgroundExtraction queues the fire-and-forget extraction tasks for
// a completed turn. Rejected submissions are dropped; the pool logs them.
func (s *Service) submitBackgroundExtraction(userID, userMessage, aiResponse string) {
	s.pool.Submit(runtime.Task{
		Name:   "extract_reminders",
		UserID: userID,
		Run: func(ctx context.Context) error {
			_, err := s.ExtractReminders(ctx, userID, userMessage)
			return err
		},
	})
	s.pool.Submit(runtime.Task{
		Name:   "extract_insights",
		UserID: userID,
		Run: func(ctx context.Context) error {
			return s.ExtractInsights(ctx, userID, userMessage, aiResponse)
		},
	})
}

// ExtractReminders asks the model for labeled reminder blocks in the user
// message and persists each valid candidate independently, so one bad block
// (or one failed insert) cannot discard its siblings.
func (s *Service) ExtractReminders(ctx context.Context, userID, userMessage string) ([]reminders.Reminder, error) {
	today := time.Now().UTC().Format("2006-01-02")
	raw, err := s.gateway.Complete(ctx, ComposeReminderExtractionPrompt(today, userMessage))
	if err != nil {
		return nil, err
	}

	candidates := extract.ParseReminderBlocks(raw)
	saved := make([]reminders.Reminder, 0, len(candidates))
	for _, c := range candidates {
		r := reminders.Reminder{
			UserID:      userID,
			Title:       c.Title,
			Description: c.Description,
			DueAt:       c.DueAt,
			Tags:        c.Tags,
			Status:      reminders.StatusIncomplete,
		}
		if err := s.reminders.Save(ctx, &r); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Str("title", c.Title).Msg("Failed to persist extracted reminder")
			continue
		}
		saved = append(saved, r)
	}

	s.logger.Info().Str("user_id", userID).Int("extracted", len(saved)).Msg("Reminder extraction finished")
	return saved, nil
}

// Generate runs a bare prompt through the gateway with no context assembly.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	return s.gateway.Complete(ctx, prompt)
}

// Welcome produces a session-opening greeting. Only the user's core profile
// feeds the prompt; no history, reminders, or memories are assembled, and the
// greeting itself is not persisted as a turn.
func (s *Service) Welcome(ctx context.Context, userID string) (string, error) {
	coreInfo, err := s.profiles.CoreInformation(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load core information: %w", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	return s.Generate(ctx, ComposeWelcomePrompt(today, coreInfo))
}

// History returns the user's last n chat turns, oldest first.
func (s *Service) History(ctx context.Context, userID string, n int) ([]conversations.Turn, error) {
	if n <= 0 {
		n = historyDepth
	}
	return s.turns.Recent(ctx, userID, n)
}

// summaryDate is the civil-date layout used throughout summary generation.
const summaryDate = "2006-01-02"

// summaryWindow returns the activity window for a date: noon local time to
// the next day's 11:59:59.999999999 local time. The noon boundary is an
// intentional product decision, not a bug.
func summaryWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, loc)
	end := time.Date(date.Year(), date.Month(), date.Day()+1, 11, 59, 59, 999_999_999, loc)
	return start, end
}

// CanGenerateSummary checks the generation preconditions for (userID, date):
// the date must be strictly past in the caller's local time, have no existing
// summary, and have at least one chat turn in its activity window. The
// returned error is one of the summaries.ErrCannotGenerate sentinels, or nil
// when generation may proceed.
func (s *Service) CanGenerateSummary(ctx context.Context, userID, date string, offsetSeconds int) error {
	loc := time.FixedZone("user", offsetSeconds)

	day, err := time.ParseInLocation(summaryDate, date, loc)
	if err != nil {
		return fmt.Errorf("%w: invalid date %q", summaries.ErrCannotGenerate, date)
	}

	today := time.Now().In(loc).Format(summaryDate)
	if date >= today {
		return summaries.ErrNotPastDate
	}

	exists, err := s.summaries.Exists(ctx, userID, date)
	if err != nil {
		return fmt.Errorf("check existing summary: %w", err)
	}
	if exists {
		return summaries.ErrSummaryExists
	}

	start, end := summaryWindow(day, loc)
	turns, err := s.turns.Between(ctx, userID, start, end)
	if err != nil {
		return fmt.Errorf("load turns in window: %w", err)
	}
	if len(turns) == 0 {
		return summaries.ErrNoTurns
	}
	return nil
}

// GenerateDailySummary validates preconditions, analyzes the date's chat
// activity, and persists the resulting summary. Precondition failures are
// reported as summaries.ErrCannotGenerate sentinels and never silently
// downgraded. Once persisted, a summary must be explicitly deleted before
// another may be generated for the same (user, date).
func (s *Service) GenerateDailySummary(ctx context.Context, userID, date string, offsetSeconds int) (*summaries.DailySummary, error) {
	if err := s.CanGenerateSummary(ctx, userID, date, offsetSeconds); err != nil {
		return nil, err
	}

	loc := time.FixedZone("user", offsetSeconds)
	day, err := time.ParseInLocation(summaryDate, date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", summaries.ErrCannotGenerate, date)
	}

	start, end := summaryWindow(day, loc)
	turns, err := s.turns.Between(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load turns in window: %w", err)
	}
	if len(turns) == 0 {
		return nil, summaries.ErrNoTurns
	}

	prompt := ComposeSummaryPrompt(date, FormatTimedChatHistory(turns))
	raw, err := s.gateway.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	// Extraction never fails: malformed output degrades to fallback values.
	result := extract.ParseDailySummary(raw)

	ds := &summaries.DailySummary{
		UserID:       userID,
		Date:         date,
		SummaryText:  result.Summary,
		Scores:       result.Scores,
		AnalysisText: result.Analysis,
	}
	if err := s.summaries.Save(ctx, ds); err != nil {
		return nil, fmt.Errorf("persist summary: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("date", date).Msg("Generated daily summary")
	return ds, nil
}
