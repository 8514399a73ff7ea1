// Package escalation decides whether an automated response may be returned
// as-is or must be handed off to a human. It combines the turn's confidence
// score with session counters and keyword triggers, and keeps an append-only
// ledger of every escalation for review.
package escalation

import (
	"fmt"
	"time"
)

// Type classifies why a conversation escalated
type Type string

const (
	TypeSensitiveContent Type = "sensitive_content"
	TypeUserRequested    Type = "user_requested"
	TypeLowConfidence    Type = "low_confidence"
	TypeRepeatedAttempts Type = "repeated_attempts"
	TypeGeneral          Type = "general"
)

// Priority ranks how quickly a human should pick up an escalation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Turn is one request/response exchange. It is immutable once constructed
// and consumed exactly once per decision.
type Turn struct {
	SessionID    string        `json:"session_id"`
	Request      string        `json:"request"`
	Response     string        `json:"response"`
	Capabilities []string      `json:"capabilities,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Validate fails fast on malformed turns. An empty response is valid input
// (it degrades to minimum confidence); a missing session identifier is not,
// and is never silently replaced with a default.
func (t Turn) Validate() error {
	if t.SessionID == "" {
		return fmt.Errorf("turn is missing a session identifier")
	}
	if t.Request == "" {
		return fmt.Errorf("turn is missing the request text")
	}
	if t.Elapsed < 0 {
		return fmt.Errorf("turn elapsed duration cannot be negative")
	}
	return nil
}

// Decision is the policy's verdict for one turn. Reasons is non-empty iff
// ShouldEscalate is true.
type Decision struct {
	ShouldEscalate bool     `json:"should_escalate"`
	Confidence     float64  `json:"confidence_score"`
	Threshold      float64  `json:"threshold"`
	Reasons        []string `json:"reasons"`
	Type           Type     `json:"escalation_type"`
	Priority       Priority `json:"priority"`
}

// Record is a timestamped decision plus the turn that produced it, as stored
// in the ledger. Records are never mutated or removed.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Turn      Turn      `json:"turn"`
	Decision  Decision  `json:"decision"`
}
