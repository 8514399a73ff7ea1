package escalation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rizki/eskala/pkg/sessionstate"
)

// mediumConfidenceCeiling bumps priority to medium when confidence drops
// well below the escalation threshold itself.
const mediumConfidenceCeiling = 0.4

// mediumRepeatFloor bumps priority to medium once the user has repeated
// themselves this many times.
const mediumRepeatFloor = 2

// urgencyKeywords raise priority to high when they appear in the request.
var urgencyKeywords = []string{"urgent", "critical"}

// Rules holds the tunable thresholds and vocabularies the policy checks.
// All slices are matched as case-insensitive substrings of the request.
type Rules struct {
	ConfidenceThreshold      float64
	FallbackTrigger          int
	RepeatTrigger            int
	ComplexRequestWords      int
	ComplexConfidenceCeiling float64
	EscalationPhrases        []string
	SensitiveKeywords        []string
}

// DefaultRules mirrors the shipped configuration defaults.
func DefaultRules() Rules {
	return Rules{
		ConfidenceThreshold:      0.7,
		FallbackTrigger:          2,
		RepeatTrigger:            3,
		ComplexRequestWords:      20,
		ComplexConfidenceCeiling: 0.6,
		EscalationPhrases: []string{
			"talk to a human",
			"this isn't working",
			"i need help",
			"human assistance",
			"escalate",
			"not helpful",
			"frustrated",
		},
		SensitiveKeywords: []string{
			"bug",
			"error",
			"broken",
			"not working",
			"delete all",
			"lost data",
			"critical",
			"urgent",
			"deadline",
		},
	}
}

// Policy evaluates turns against a rule set. Rules can be swapped at
// runtime, so a config reload takes effect on the next decision without
// restarting the engine.
type Policy struct {
	mu    sync.RWMutex
	rules Rules
}

// NewPolicy builds a policy around the given rules, filling empty
// vocabularies from the defaults.
func NewPolicy(rules Rules) *Policy {
	defaults := DefaultRules()
	if rules.ConfidenceThreshold == 0 {
		rules.ConfidenceThreshold = defaults.ConfidenceThreshold
	}
	if rules.FallbackTrigger == 0 {
		rules.FallbackTrigger = defaults.FallbackTrigger
	}
	if rules.RepeatTrigger == 0 {
		rules.RepeatTrigger = defaults.RepeatTrigger
	}
	if rules.ComplexRequestWords == 0 {
		rules.ComplexRequestWords = defaults.ComplexRequestWords
	}
	if rules.ComplexConfidenceCeiling == 0 {
		rules.ComplexConfidenceCeiling = defaults.ComplexConfidenceCeiling
	}
	if len(rules.EscalationPhrases) == 0 {
		rules.EscalationPhrases = defaults.EscalationPhrases
	}
	if len(rules.SensitiveKeywords) == 0 {
		rules.SensitiveKeywords = defaults.SensitiveKeywords
	}
	return &Policy{rules: rules}
}

// Rules returns a copy of the active rule set.
func (p *Policy) Rules() Rules {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rules
}

// SetRules replaces the active rule set.
func (p *Policy) SetRules(rules Rules) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = rules
}

// Decide runs every trigger in a fixed order and accumulates one reason per
// trigger that fires. Counters must be the session state as it was BEFORE
// this turn is recorded, so streak triggers react to the history leading up
// to the current exchange.
func (p *Policy) Decide(turn Turn, confidence float64, counters sessionstate.Counters) Decision {
	rules := p.Rules()

	var reasons []string
	var sensitive, userRequested, lowConfidence, repeated bool

	if confidence < rules.ConfidenceThreshold {
		reasons = append(reasons, fmt.Sprintf("Low confidence score: %v", confidence))
		lowConfidence = true
	}

	request := strings.ToLower(turn.Request)
	if containsAny(request, rules.EscalationPhrases) {
		reasons = append(reasons, "User explicitly requested human assistance")
		userRequested = true
	}

	if counters.FallbackStreak >= rules.FallbackTrigger {
		reasons = append(reasons, fmt.Sprintf("Multiple fallback attempts: %d", counters.FallbackStreak))
	}

	if containsAny(request, rules.SensitiveKeywords) {
		reasons = append(reasons, "Sensitive topic detected")
		sensitive = true
	}

	if counters.RepeatStreak >= rules.RepeatTrigger {
		reasons = append(reasons, fmt.Sprintf("Repeated similar requests: %d", counters.RepeatStreak))
		repeated = true
	}

	if len(strings.Fields(turn.Request)) > rules.ComplexRequestWords &&
		len(turn.Capabilities) == 0 &&
		confidence < rules.ComplexConfidenceCeiling {
		reasons = append(reasons, "Complex request with low tool engagement")
	}

	return Decision{
		ShouldEscalate: len(reasons) > 0,
		Confidence:     confidence,
		Threshold:      rules.ConfidenceThreshold,
		Reasons:        reasons,
		Type:           classify(sensitive, userRequested, lowConfidence, repeated),
		Priority:       prioritize(request, confidence, counters, sensitive),
	}
}

// classify picks the most specific type for the triggers that fired.
// A decision driven only by the fallback streak or request complexity
// stays general.
func classify(sensitive, userRequested, lowConfidence, repeated bool) Type {
	switch {
	case sensitive:
		return TypeSensitiveContent
	case userRequested:
		return TypeUserRequested
	case lowConfidence:
		return TypeLowConfidence
	case repeated:
		return TypeRepeatedAttempts
	default:
		return TypeGeneral
	}
}

func prioritize(request string, confidence float64, counters sessionstate.Counters, sensitive bool) Priority {
	if sensitive || containsAny(request, urgencyKeywords) {
		return PriorityHigh
	}
	if confidence < mediumConfidenceCeiling || counters.RepeatStreak >= mediumRepeatFloor {
		return PriorityMedium
	}
	return PriorityLow
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}
