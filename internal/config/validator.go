package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEscalation validates escalation policy settings
func (v *Validator) ValidateEscalation(cfg EscalationConfig) error {
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1], got %v", cfg.ConfidenceThreshold)
	}
	if cfg.FallbackTrigger < 1 {
		return fmt.Errorf("fallback trigger must be at least 1, got %d", cfg.FallbackTrigger)
	}
	if cfg.RepeatTrigger < 1 {
		return fmt.Errorf("repeat trigger must be at least 1, got %d", cfg.RepeatTrigger)
	}
	if cfg.ComplexRequestWords < 1 {
		return fmt.Errorf("complex request word count must be at least 1, got %d", cfg.ComplexRequestWords)
	}
	if cfg.ComplexConfidenceCeiling < 0 || cfg.ComplexConfidenceCeiling > 1 {
		return fmt.Errorf("complex confidence ceiling must be in [0,1], got %v", cfg.ComplexConfidenceCeiling)
	}
	if len(cfg.EscalationPhrases) == 0 {
		return fmt.Errorf("escalation phrases cannot be empty")
	}
	if len(cfg.SensitiveKeywords) == 0 {
		return fmt.Errorf("sensitive keywords cannot be empty")
	}
	return nil
}

// ValidateSignals validates signal vocabularies
func (v *Validator) ValidateSignals(cfg SignalsConfig) error {
	if len(cfg.ActionKeywords) == 0 {
		return fmt.Errorf("action keywords cannot be empty")
	}
	if len(cfg.ErrorKeywords) == 0 {
		return fmt.Errorf("error keywords cannot be empty")
	}
	if len(cfg.AffirmativeWords) == 0 {
		return fmt.Errorf("affirmative words cannot be empty")
	}
	return nil
}

// ValidateMemory validates memory settings
func (v *Validator) ValidateMemory(cfg MemoryConfig) error {
	switch cfg.Type {
	case "buffer", "summary":
	default:
		return fmt.Errorf("unknown memory type %q (expected buffer or summary)", cfg.Type)
	}
	if cfg.MaxMessages < 1 {
		return fmt.Errorf("memory max messages must be at least 1, got %d", cfg.MaxMessages)
	}
	if cfg.HistoryWindow < 1 {
		return fmt.Errorf("memory history window must be at least 1, got %d", cfg.HistoryWindow)
	}
	return nil
}

// ValidateSessions validates session tracking settings
func (v *Validator) ValidateSessions(cfg SessionsConfig) error {
	if cfg.SweepEnabled {
		if cfg.SweepSchedule == "" {
			return fmt.Errorf("sweep schedule is required when sweeping is enabled")
		}
		if cfg.TTLMinutes < 1 {
			return fmt.Errorf("session TTL must be at least 1 minute, got %d", cfg.TTLMinutes)
		}
	}
	return nil
}

// ValidateProfile validates an AI provider profile
func (v *Validator) ValidateProfile(profile AIProfile) error {
	if profile.ID == "" {
		return fmt.Errorf("AI profile ID is required")
	}
	if profile.APIKey == "" {
		return fmt.Errorf("AI profile %s: API key cannot be empty", profile.ID)
	}

	switch profile.Provider {
	case "anthropic":
		if !strings.HasPrefix(profile.APIKey, "sk-ant-") {
			return fmt.Errorf("AI profile %s: invalid Anthropic API key format (should start with sk-ant-)", profile.ID)
		}
	case "openai":
		if !strings.HasPrefix(profile.APIKey, "sk-") {
			return fmt.Errorf("AI profile %s: invalid OpenAI API key format (should start with sk-)", profile.ID)
		}
	default:
		return fmt.Errorf("AI profile %s: unsupported provider %q", profile.ID, profile.Provider)
	}

	return nil
}
