package memory

import (
	"context"
	"fmt"

	"github.com/rizki/eskala/internal/config"
)

const summaryPrompt = "Condense the following conversation excerpt into a short factual summary. " +
	"Keep names, identifiers, and unresolved requests. Reply with the summary only."

// Summarizer condenses conversation text so old exchanges can be compressed
// instead of dropped.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Provider() string
}

// NewSummarizer builds a summarizer from an AI profile. A nil profile yields
// the local truncating summarizer, so summary conversations work without
// any API key configured.
func NewSummarizer(profile *config.AIProfile) (Summarizer, error) {
	if profile == nil {
		return NewTruncatingSummarizer(0), nil
	}
	switch profile.Provider {
	case "anthropic":
		return NewAnthropicSummarizer(profile.APIKey, profile.Model), nil
	case "openai":
		return NewOpenAISummarizer(profile.APIKey, profile.Model), nil
	default:
		return nil, fmt.Errorf("unsupported summarizer provider: %s", profile.Provider)
	}
}

const defaultTruncateLimit = 600

// TruncatingSummarizer is the zero-dependency fallback. It keeps the head of
// the text up to a rune limit.
type TruncatingSummarizer struct {
	limit int
}

func NewTruncatingSummarizer(limit int) *TruncatingSummarizer {
	if limit <= 0 {
		limit = defaultTruncateLimit
	}
	return &TruncatingSummarizer{limit: limit}
}

func (t *TruncatingSummarizer) Provider() string {
	return "truncate"
}

func (t *TruncatingSummarizer) Summarize(_ context.Context, text string) (string, error) {
	runes := []rune(text)
	if len(runes) <= t.limit {
		return text, nil
	}
	return string(runes[:t.limit]) + "...", nil
}
