package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, 0.7, cfg.Escalation.ConfidenceThreshold)
	assert.Equal(t, 2, cfg.Escalation.FallbackTrigger)
	assert.Equal(t, 3, cfg.Escalation.RepeatTrigger)
	assert.Equal(t, 20, cfg.Escalation.ComplexRequestWords)
	assert.Equal(t, 0.6, cfg.Escalation.ComplexConfidenceCeiling)
	assert.Contains(t, cfg.Escalation.EscalationPhrases, "talk to a human")
	assert.Contains(t, cfg.Escalation.SensitiveKeywords, "urgent")
	assert.Contains(t, cfg.Signals.ActionKeywords, "successfully")
	assert.Contains(t, cfg.Signals.ErrorKeywords, "not found")
	assert.Equal(t, "buffer", cfg.Memory.Type)
	assert.Equal(t, 20, cfg.Memory.MaxMessages)
	assert.False(t, cfg.Sessions.SweepEnabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfigValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("threshold out of range", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Escalation.ConfidenceThreshold = 1.5

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "threshold")
	})

	t.Run("empty vocabularies", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Escalation.SensitiveKeywords = nil

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "sensitive keywords")
	})

	t.Run("bad memory type", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Memory.Type = "vector"

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "memory type")
	})

	t.Run("summary profile must exist", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Memory.Type = "summary"
		cfg.Memory.SummaryProfile = "missing"

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "summary_profile")
	})

	t.Run("valid AI profile", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AI.Profiles = []AIProfile{
			{ID: "main", Provider: "anthropic", APIKey: "sk-ant-test123"},
		}

		assert.NoError(t, cfg.Validate())
	})

	t.Run("wrong key prefix", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AI.Profiles = []AIProfile{
			{ID: "main", Provider: "anthropic", APIKey: "bad-key"},
		}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "sk-ant-")
	})

	t.Run("sweep needs TTL", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Sessions.SweepEnabled = true
		cfg.Sessions.TTLMinutes = 0

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "TTL")
	})
}

func TestSummaryProfile(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, cfg.SummaryProfile())

	cfg.AI.Profiles = []AIProfile{
		{ID: "sum", Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"},
	}
	cfg.Memory.SummaryProfile = "sum"

	profile := cfg.SummaryProfile()
	assert.NotNil(t, profile)
	assert.Equal(t, "openai", profile.Provider)
}
