package config

import (
	"fmt"
)

// Config represents the main eskala configuration
type Config struct {
	// Escalation policy thresholds and vocabularies
	Escalation EscalationConfig `json:"escalation" mapstructure:"escalation"`

	// Confidence signal vocabularies
	Signals SignalsConfig `json:"signals" mapstructure:"signals"`

	// Conversation memory
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`

	// Session counter tracking
	Sessions SessionsConfig `json:"sessions" mapstructure:"sessions"`

	// Storage paths
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// AI provider profiles (used by the summary memory)
	AI AIConfig `json:"ai" mapstructure:"ai"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// EscalationConfig holds the escalation policy configuration. Everything here
// is data, not code: thresholds and vocabularies are adjustable without
// touching the decision logic.
type EscalationConfig struct {
	// ConfidenceThreshold is the floor below which every decision escalates
	ConfidenceThreshold float64 `json:"confidence_threshold" mapstructure:"confidence_threshold"`

	// FallbackTrigger is the consecutive-fallback streak that forces escalation
	FallbackTrigger int `json:"fallback_trigger" mapstructure:"fallback_trigger"`

	// RepeatTrigger is the repeated-request streak that forces escalation
	RepeatTrigger int `json:"repeat_trigger" mapstructure:"repeat_trigger"`

	// ComplexRequestWords is the request word count above which a request
	// counts as complex
	ComplexRequestWords int `json:"complex_request_words" mapstructure:"complex_request_words"`

	// ComplexConfidenceCeiling is the confidence below which a complex
	// request with no tool engagement escalates
	ComplexConfidenceCeiling float64 `json:"complex_confidence_ceiling" mapstructure:"complex_confidence_ceiling"`

	// EscalationPhrases are user phrases that explicitly request a human
	EscalationPhrases []string `json:"escalation_phrases" mapstructure:"escalation_phrases"`

	// SensitiveKeywords are request keywords that always escalate
	SensitiveKeywords []string `json:"sensitive_keywords" mapstructure:"sensitive_keywords"`
}

// SignalsConfig holds the vocabularies used by the confidence signals
type SignalsConfig struct {
	// ActionKeywords raise the action-language signal
	ActionKeywords []string `json:"action_keywords" mapstructure:"action_keywords"`

	// ErrorKeywords drive the error-language penalty
	ErrorKeywords []string `json:"error_keywords" mapstructure:"error_keywords"`

	// AffirmativeWords mark a response as answering a question
	AffirmativeWords []string `json:"affirmative_words" mapstructure:"affirmative_words"`
}

// MemoryConfig holds conversation memory configuration
type MemoryConfig struct {
	// Type selects the memory implementation: buffer or summary
	Type string `json:"type" mapstructure:"type"`

	// MaxMessages bounds the per-session message buffer
	MaxMessages int `json:"max_messages" mapstructure:"max_messages"`

	// HistoryWindow is how many recent messages History renders
	HistoryWindow int `json:"history_window" mapstructure:"history_window"`

	// SummaryProfile names the AI profile used for summarization; empty
	// selects the deterministic truncating summarizer
	SummaryProfile string `json:"summary_profile" mapstructure:"summary_profile"`
}

// SessionsConfig holds session tracking configuration
type SessionsConfig struct {
	// SweepEnabled turns on TTL eviction of idle sessions
	SweepEnabled bool `json:"sweep_enabled" mapstructure:"sweep_enabled"`

	// SweepSchedule is a cron spec for the eviction sweep
	SweepSchedule string `json:"sweep_schedule" mapstructure:"sweep_schedule"`

	// TTLMinutes is how long an idle session survives before eviction
	TTLMinutes int `json:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// StorageConfig holds storage paths
type StorageConfig struct {
	// BoardDB is the SQLite database file for board storage
	BoardDB string `json:"board_db" mapstructure:"board_db"`

	// LedgerFile is the append-only escalation ledger file (JSONL)
	LedgerFile string `json:"ledger_file" mapstructure:"ledger_file"`

	// AuditFile is the audit log file
	AuditFile string `json:"audit_file" mapstructure:"audit_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// AIConfig holds AI provider configuration
type AIConfig struct {
	Profiles []AIProfile `json:"profiles" mapstructure:"profiles"`
}

// AIProfile represents credentials for one LLM provider
type AIProfile struct {
	ID       string `json:"id" mapstructure:"id"`
	Provider string `json:"provider" mapstructure:"provider"` // openai, anthropic
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	Model    string `json:"model" mapstructure:"model"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Escalation: EscalationConfig{
			ConfidenceThreshold:      0.7,
			FallbackTrigger:          2,
			RepeatTrigger:            3,
			ComplexRequestWords:      20,
			ComplexConfidenceCeiling: 0.6,
			EscalationPhrases: []string{
				"talk to a human", "this isn't working", "i need help",
				"human assistance", "escalate", "not helpful", "frustrated",
			},
			SensitiveKeywords: []string{
				"bug", "error", "broken", "not working", "delete all",
				"lost data", "critical", "urgent", "deadline",
			},
		},
		Signals: SignalsConfig{
			ActionKeywords: []string{
				"created", "added", "updated", "found", "completed",
				"successfully", "generated", "here are", "i can help",
			},
			ErrorKeywords: []string{
				"sorry", "cannot", "unable", "error", "failed", "not found",
			},
			AffirmativeWords: []string{"yes", "no", "here", "found"},
		},
		Memory: MemoryConfig{
			Type:          "buffer",
			MaxMessages:   20,
			HistoryWindow: 10,
		},
		Sessions: SessionsConfig{
			SweepEnabled:  false,
			SweepSchedule: "@every 10m",
			TTLMinutes:    120,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	v := NewValidator()

	if err := v.ValidateEscalation(c.Escalation); err != nil {
		return err
	}
	if err := v.ValidateSignals(c.Signals); err != nil {
		return err
	}
	if err := v.ValidateMemory(c.Memory); err != nil {
		return err
	}
	if err := v.ValidateSessions(c.Sessions); err != nil {
		return err
	}
	for _, profile := range c.AI.Profiles {
		if err := v.ValidateProfile(profile); err != nil {
			return err
		}
	}

	if c.Memory.SummaryProfile != "" {
		if c.profileByID(c.Memory.SummaryProfile) == nil {
			return fmt.Errorf("memory summary_profile %q does not match any AI profile", c.Memory.SummaryProfile)
		}
	}

	return nil
}

func (c *Config) profileByID(id string) *AIProfile {
	for i := range c.AI.Profiles {
		if c.AI.Profiles[i].ID == id {
			return &c.AI.Profiles[i]
		}
	}
	return nil
}

// SummaryProfile resolves the AI profile configured for summarization.
// Returns nil when none is configured.
func (c *Config) SummaryProfile() *AIProfile {
	if c.Memory.SummaryProfile == "" {
		return nil
	}
	return c.profileByID(c.Memory.SummaryProfile)
}
