// Package memory keeps per-session conversation context for history-aware
// prompting. Two strategies are available: a bounded buffer that drops the
// oldest exchanges, and a summarizing variant that compresses evicted
// exchanges through a provider-backed summarizer.
package memory

import (
	"context"
	"strings"
	"time"
)

// Exchange is one stored user/assistant turn.
type Exchange struct {
	Timestamp    time.Time `json:"timestamp"`
	UserInput    string    `json:"user_input"`
	Response     string    `json:"agent_response"`
	Capabilities []string  `json:"tools_used,omitempty"`
	Confidence   float64   `json:"confidence_score"`
}

// Conversation stores and formats one session's history.
type Conversation interface {
	// Append records an exchange, evicting or compressing old ones as needed.
	Append(ctx context.Context, exchange Exchange)

	// History renders the most recent exchanges as prompt context, newest
	// last. limit <= 0 uses the conversation's default window.
	History(limit int) string

	// Len reports the number of retained exchanges.
	Len() int

	// Clear drops all stored context.
	Clear()
}

func formatExchanges(exchanges []Exchange) string {
	lines := make([]string, 0, len(exchanges)*2)
	for _, exchange := range exchanges {
		lines = append(lines, "User: "+exchange.UserInput)
		lines = append(lines, "Assistant: "+exchange.Response)
	}
	return strings.Join(lines, "\n")
}
