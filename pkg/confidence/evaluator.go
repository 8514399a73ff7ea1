// Package confidence scores conversational-agent responses along independent
// heuristic signals and combines them into a normalized [0,1] confidence
// value. The score is not a calibrated probability; it exists to drive the
// escalation policy.
package confidence

import (
	"math"
)

// Evaluator computes confidence scores. It is pure and safe for concurrent
// use: the vocabulary is fixed at construction.
type Evaluator struct {
	vocab Vocabulary
}

// NewEvaluator creates an evaluator with the given vocabulary. Empty word
// lists fall back to the defaults.
func NewEvaluator(vocab Vocabulary) *Evaluator {
	defaults := DefaultVocabulary()
	if len(vocab.ActionKeywords) == 0 {
		vocab.ActionKeywords = defaults.ActionKeywords
	}
	if len(vocab.ErrorKeywords) == 0 {
		vocab.ErrorKeywords = defaults.ErrorKeywords
	}
	if len(vocab.AffirmativeWords) == 0 {
		vocab.AffirmativeWords = defaults.AffirmativeWords
	}
	return &Evaluator{vocab: vocab}
}

// Score evaluates one turn and returns the confidence score: the arithmetic
// mean of the five sub-signals, rounded to two decimals. Empty inputs yield
// minimum signal values rather than an error.
func (e *Evaluator) Score(request, response string, capabilities []string) float64 {
	return e.Evaluate(request, response, capabilities).Score
}

// Evaluate returns the full signal breakdown for one turn
func (e *Evaluator) Evaluate(request, response string, capabilities []string) Breakdown {
	b := Breakdown{
		ToolUsage:       e.toolUsageSignal(capabilities),
		Verbosity:       e.verbositySignal(response),
		ActionLanguage:  e.actionLanguageSignal(response),
		ErrorPenalty:    e.errorPenaltySignal(response),
		IntentAlignment: e.intentAlignmentSignal(request, response, capabilities),
	}

	mean := (b.ToolUsage + b.Verbosity + b.ActionLanguage + b.ErrorPenalty + b.IntentAlignment) / 5
	b.Score = round2(mean)
	return b
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
