package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rizki/eskala/internal/observability"
)

// SummaryConversation keeps the newest exchanges verbatim and folds evicted
// ones into a running summary. Summarization happens inline on Append; a
// failed summarization falls back to local truncation so context is never
// lost outright.
type SummaryConversation struct {
	mu            sync.RWMutex
	exchanges     []Exchange
	summary       string
	maxExchanges  int
	historyWindow int
	summarizer    Summarizer
	fallback      Summarizer
	logger        zerolog.Logger
}

// NewSummaryConversation builds a summarizing conversation around the given
// summarizer.
func NewSummaryConversation(maxExchanges, historyWindow int, summarizer Summarizer, logger zerolog.Logger) *SummaryConversation {
	if maxExchanges <= 0 {
		maxExchanges = defaultMaxExchanges
	}
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}
	if summarizer == nil {
		summarizer = NewTruncatingSummarizer(0)
	}
	return &SummaryConversation{
		maxExchanges:  maxExchanges,
		historyWindow: historyWindow,
		summarizer:    summarizer,
		fallback:      NewTruncatingSummarizer(0),
		logger:        logger.With().Str("component", "memory").Logger(),
	}
}

func (s *SummaryConversation) Append(ctx context.Context, exchange Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exchanges = append(s.exchanges, exchange)
	if len(s.exchanges) <= s.maxExchanges {
		return
	}

	evicted := s.exchanges[:len(s.exchanges)-s.maxExchanges]
	s.exchanges = s.exchanges[len(s.exchanges)-s.maxExchanges:]
	s.compress(ctx, evicted)
}

// compress folds evicted exchanges into the running summary. Called with
// s.mu held.
func (s *SummaryConversation) compress(ctx context.Context, evicted []Exchange) {
	var parts []string
	if s.summary != "" {
		parts = append(parts, s.summary)
	}
	parts = append(parts, formatExchanges(evicted))
	combined := strings.Join(parts, "\n")

	summary, err := s.summarizer.Summarize(ctx, combined)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("provider", s.summarizer.Provider()).
			Msg("Summarization failed, truncating instead")
		summary, _ = s.fallback.Summarize(ctx, combined)
		observability.RecordMemorySummary(s.fallback.Provider())
	} else {
		observability.RecordMemorySummary(s.summarizer.Provider())
	}
	s.summary = summary
}

func (s *SummaryConversation) History(limit int) string {
	if limit <= 0 {
		limit = s.historyWindow
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	exchanges := s.exchanges
	if len(exchanges) > limit {
		exchanges = exchanges[len(exchanges)-limit:]
	}
	recent := formatExchanges(exchanges)
	if s.summary == "" {
		return recent
	}
	if recent == "" {
		return "Summary of earlier conversation: " + s.summary
	}
	return "Summary of earlier conversation: " + s.summary + "\n" + recent
}

func (s *SummaryConversation) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.exchanges)
}

// Summary returns the compressed context for exchanges no longer retained
// verbatim.
func (s *SummaryConversation) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

func (s *SummaryConversation) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = nil
	s.summary = ""
}
