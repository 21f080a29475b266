package assistant

import (
	"context"
	"fmt"

	"github.com/carebridge/companiond/extract"
)

// ExtractInsights runs the background learning pass for a completed turn:
// one completion rewrites the user's core-information blob (or declines with
// "none"), and a second distills an episodic memory snippet for the recall
// store. The two mutations are independent; either can succeed without the
// other. Callers run this fire-and-forget, so errors are returned only for
// logging.
func (s *Service) ExtractInsights(ctx context.Context, userID, userMessage, aiResponse string) error {
	existing, err := s.profiles.CoreInformation(ctx, userID)
	if err != nil {
		return fmt.Errorf("load core information: %w", err)
	}

	var firstErr error

	raw, err := s.gateway.Complete(ctx, ComposeFactRewritePrompt(existing, userMessage, aiResponse))
	if err != nil {
		firstErr = err
	} else if blob, ok := extract.ParseFactRewrite(raw); ok {
		if err := s.profiles.ReplaceCoreInformation(ctx, userID, blob); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to replace core information")
			if firstErr == nil {
				firstErr = err
			}
		} else {
			s.logger.Debug().Str("user_id", userID).Msg("Core information updated")
		}
	}

	raw, err = s.gateway.Complete(ctx, ComposeMemorySnippetPrompt(userMessage, aiResponse))
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else if snippet, ok := extract.ParseFactRewrite(raw); ok {
		if err := s.memory.Remember(ctx, userID, snippet); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to store memory snippet")
			if firstErr == nil {
				firstErr = err
			}
		} else {
			s.logger.Debug().Str("user_id", userID).Msg("Memory snippet stored")
		}
	}

	return firstErr
}

// MergeCoreInformation merges caller-provided information into the user's
// core blob via an LLM rewrite and replaces the blob wholesale. Unlike the
// background insight path, failures here surface to the caller.
func (s *Service) MergeCoreInformation(ctx context.Context, userID, newInfo string) (string, error) {
	existing, err := s.profiles.CoreInformation(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load core information: %w", err)
	}

	raw, err := s.gateway.Complete(ctx, ComposeManualCoreInfoPrompt(existing, newInfo))
	if err != nil {
		return "", err
	}

	blob, ok := extract.ParseFactRewrite(raw)
	if !ok {
		// The model declined; keep the existing blob untouched.
		return existing, nil
	}

	if err := s.profiles.ReplaceCoreInformation(ctx, userID, blob); err != nil {
		return "", fmt.Errorf("replace core information: %w", err)
	}
	return blob, nil
}

// AddContextualMemory stores a caller-provided memory snippet directly,
// independent of any other mutation. Failures surface to the caller.
func (s *Service) AddContextualMemory(ctx context.Context, userID, text string) error {
	return s.memory.Remember(ctx, userID, text)
}
