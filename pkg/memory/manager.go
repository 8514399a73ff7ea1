package memory

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rizki/eskala/internal/config"
)

// Manager hands out one Conversation per session, created lazily with the
// strategy the configuration selects.
type Manager struct {
	mu            sync.Mutex
	conversations map[string]Conversation
	cfg           config.MemoryConfig
	summarizer    Summarizer
	logger        zerolog.Logger
}

// NewManager builds a manager. For the summary strategy the summarizer is
// resolved from the configured AI profile once, up front, so a bad profile
// fails at startup rather than mid-conversation.
func NewManager(cfg *config.Config, logger zerolog.Logger) (*Manager, error) {
	m := &Manager{
		conversations: make(map[string]Conversation),
		cfg:           cfg.Memory,
		logger:        logger,
	}

	switch cfg.Memory.Type {
	case "", "buffer":
	case "summary":
		summarizer, err := NewSummarizer(cfg.SummaryProfile())
		if err != nil {
			return nil, fmt.Errorf("failed to build summarizer: %w", err)
		}
		m.summarizer = summarizer
	default:
		return nil, fmt.Errorf("unknown memory type: %s", cfg.Memory.Type)
	}

	return m, nil
}

// Get returns the session's conversation, creating it on first use.
func (m *Manager) Get(sessionID string) Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conversation, ok := m.conversations[sessionID]; ok {
		return conversation
	}

	var conversation Conversation
	if m.cfg.Type == "summary" {
		conversation = NewSummaryConversation(m.cfg.MaxMessages, m.cfg.HistoryWindow, m.summarizer, m.logger)
	} else {
		conversation = NewBuffer(m.cfg.MaxMessages, m.cfg.HistoryWindow)
	}
	m.conversations[sessionID] = conversation
	return conversation
}

// Drain renders every tracked conversation's recent history, then clears
// and forgets the conversations. Called when a stream of turns ends to
// surface what each session was about.
func (m *Manager) Drain() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	histories := make(map[string]string, len(m.conversations))
	for id, conversation := range m.conversations {
		histories[id] = conversation.History(0)
		conversation.Clear()
	}
	m.conversations = make(map[string]Conversation)
	return histories
}

// Remove drops a session's conversation entirely.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, sessionID)
}

// Len reports the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conversations)
}
