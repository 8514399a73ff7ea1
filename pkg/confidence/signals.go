package confidence

import (
	"strings"
)

// Vocabulary holds the word lists the signals match against. Matching is
// case-insensitive substring matching, faithful to the behavior this engine
// replaces; word-boundary matching would change scores for embedded words.
type Vocabulary struct {
	// ActionKeywords indicate the response took concrete action
	ActionKeywords []string

	// ErrorKeywords indicate the response reported a failure
	ErrorKeywords []string

	// AffirmativeWords indicate a question was answered
	AffirmativeWords []string
}

// DefaultVocabulary returns the built-in signal vocabularies
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ActionKeywords: []string{
			"created", "added", "updated", "found", "completed",
			"successfully", "generated", "here are", "i can help",
		},
		ErrorKeywords: []string{
			"sorry", "cannot", "unable", "error", "failed", "not found",
		},
		AffirmativeWords: []string{"yes", "no", "here", "found"},
	}
}

// Breakdown holds the five sub-signals and their mean
type Breakdown struct {
	ToolUsage       float64 `json:"tool_usage"`
	Verbosity       float64 `json:"verbosity"`
	ActionLanguage  float64 `json:"action_language"`
	ErrorPenalty    float64 `json:"error_penalty"`
	IntentAlignment float64 `json:"intent_alignment"`
	Score           float64 `json:"score"`
}

// toolUsageSignal scores structured tool engagement. Text-only responses get
// a low baseline; each invoked capability raises it, capped at 0.9.
func (e *Evaluator) toolUsageSignal(capabilities []string) float64 {
	if len(capabilities) == 0 {
		return 0.3
	}
	return min(float64(len(capabilities))*0.2+0.3, 0.9)
}

// verbositySignal scores response length. Longer structured answers correlate
// with substantive responses; this is a heuristic, not a semantic judgment.
func (e *Evaluator) verbositySignal(response string) float64 {
	words := len(strings.Fields(response))
	switch {
	case words > 50:
		return min(float64(words)/100, 0.9)
	case words > 20:
		return 0.7
	case words > 10:
		return 0.5
	default:
		return 0.3
	}
}

// actionLanguageSignal counts affirmative-action vocabulary in the response
func (e *Evaluator) actionLanguageSignal(response string) float64 {
	lower := strings.ToLower(response)
	count := 0
	for _, keyword := range e.vocab.ActionKeywords {
		if strings.Contains(lower, keyword) {
			count++
		}
	}
	return min(float64(count)*0.1+0.4, 0.8)
}

// errorPenaltySignal discounts responses that report failure
func (e *Evaluator) errorPenaltySignal(response string) float64 {
	lower := strings.ToLower(response)
	count := 0
	for _, keyword := range e.vocab.ErrorKeywords {
		if strings.Contains(lower, keyword) {
			count++
		}
	}
	return max(0.2, 1.0-float64(count)*0.2)
}

// intentAlignmentSignal checks whether the response shape matches the request
// shape: questions want an answer, commands want an action.
func (e *Evaluator) intentAlignmentSignal(request, response string, capabilities []string) float64 {
	if strings.Contains(request, "?") {
		lower := strings.ToLower(response)
		for _, word := range e.vocab.AffirmativeWords {
			if strings.Contains(lower, word) {
				return 0.8
			}
		}
		return 0.5
	}

	if len(capabilities) > 0 {
		return 0.9
	}
	return 0.4
}
