package summarizer

import (
	"context"
	"fmt"
	"strings"

	"ModMate/messages"
)

// Oracle is the summarization model; same contract the moderator uses.
type Oracle interface {
	Converse(ctx context.Context, userPrompt, systemPrompt string) (string, error)
}

// Summarizer condenses a message window into a short summary.
type Summarizer struct {
	oracle Oracle
}

func New(oracle Oracle) *Summarizer {
	return &Summarizer{oracle: oracle}
}

// SummarizeMessages asks the oracle for a summary of the given conversation,
// oldest message first.
func (s *Summarizer) SummarizeMessages(ctx context.Context, msgs []messages.Message) (string, error) {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.UserName, m.Content))
	}

	prompt := "Summarize the following conversation:\n" + strings.Join(lines, "\n")
	summary, err := s.oracle.Converse(ctx, prompt, "")
	if err != nil {
		return "", fmt.Errorf("SummarizeMessages: %w", err)
	}
	return summary, nil
}

// SummarizeActivity condenses a pre-formatted moderation activity log into a
// short overview.
func (s *Summarizer) SummarizeActivity(ctx context.Context, log string) (string, error) {
	prompt := "Summarize the following moderation activity in a few sentences:\n" + log
	summary, err := s.oracle.Converse(ctx, prompt, "")
	if err != nil {
		return "", fmt.Errorf("SummarizeActivity: %w", err)
	}
	return summary, nil
}
