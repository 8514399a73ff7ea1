// Package engine wires confidence scoring, session state, and escalation
// policy into a single synchronous decision pipeline. One call evaluates a
// completed turn and returns the verdict before the response is surfaced.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rizki/eskala/internal/config"
	"github.com/rizki/eskala/internal/observability"
	"github.com/rizki/eskala/internal/tracing"
	"github.com/rizki/eskala/pkg/confidence"
	"github.com/rizki/eskala/pkg/escalation"
	"github.com/rizki/eskala/pkg/sessionstate"
)

// Request describes one completed exchange to be gated.
type Request struct {
	SessionID         string        `json:"session_id"`
	RequestText       string        `json:"request"`
	ResponseText      string        `json:"response"`
	Capabilities      []string      `json:"capabilities,omitempty"`
	Elapsed           time.Duration `json:"elapsed,omitempty"`
	IsRepeatedRequest bool          `json:"is_repeated_request,omitempty"`
}

// Result is the full verdict for one turn. EscalationMessage is non-empty
// exactly when the decision escalates.
type Result struct {
	Confidence        float64              `json:"confidence_score"`
	Breakdown         confidence.Breakdown `json:"breakdown"`
	Decision          escalation.Decision  `json:"escalation"`
	EscalationMessage string               `json:"escalation_message,omitempty"`
}

// Options collects the engine's collaborators. Nil fields are replaced with
// defaults, so tests can inject only what they observe.
type Options struct {
	Evaluator *confidence.Evaluator
	Policy    *escalation.Policy
	Sessions  *sessionstate.Store
	Ledger    *escalation.Ledger
	Logger    zerolog.Logger
}

// Engine runs the decision pipeline. It is safe for concurrent use; turns
// within one session serialize on the session store's lock.
type Engine struct {
	mu        sync.RWMutex
	evaluator *confidence.Evaluator
	policy    *escalation.Policy
	sessions  *sessionstate.Store
	ledger    *escalation.Ledger
	sweeper   *sessionstate.Sweeper
	logger    zerolog.Logger
}

// New builds an engine from explicit collaborators.
func New(opts Options) *Engine {
	observability.EnsureRegistered()
	if opts.Evaluator == nil {
		opts.Evaluator = confidence.NewEvaluator(confidence.DefaultVocabulary())
	}
	if opts.Policy == nil {
		opts.Policy = escalation.NewPolicy(escalation.DefaultRules())
	}
	if opts.Sessions == nil {
		opts.Sessions = sessionstate.NewStore(opts.Logger)
	}
	if opts.Ledger == nil {
		opts.Ledger = escalation.NewLedger(opts.Logger, nil)
	}
	return &Engine{
		evaluator: opts.Evaluator,
		policy:    opts.Policy,
		sessions:  opts.Sessions,
		ledger:    opts.Ledger,
		logger:    opts.Logger.With().Str("component", "engine").Logger(),
	}
}

// NewFromConfig builds a fully wired engine: vocabulary and rules from the
// configuration, a JSONL sink at the configured ledger path with previous
// records replayed, and an idle-session sweeper when enabled.
func NewFromConfig(cfg *config.Config, logger zerolog.Logger) (*Engine, error) {
	sink, err := escalation.NewJSONLSink(cfg.Storage.LedgerFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open escalation ledger: %w", err)
	}

	ledger := escalation.NewLedger(logger, sink)
	replayed, err := escalation.ReplaySink(cfg.Storage.LedgerFile, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to replay escalation ledger")
	} else if len(replayed) > 0 {
		ledger.Load(replayed)
		logger.Info().Int("records", len(replayed)).Msg("Replayed escalation ledger")
	}

	engine := New(Options{
		Evaluator: confidence.NewEvaluator(vocabularyFromConfig(cfg.Signals)),
		Policy:    escalation.NewPolicy(RulesFromConfig(cfg.Escalation)),
		Sessions:  sessionstate.NewStore(logger),
		Ledger:    ledger,
		Logger:    logger,
	})

	if cfg.Sessions.SweepEnabled {
		ttl := time.Duration(cfg.Sessions.TTLMinutes) * time.Minute
		sweeper, err := sessionstate.NewSweeper(engine.sessions, cfg.Sessions.SweepSchedule, ttl, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to start session sweeper: %w", err)
		}
		sweeper.Start()
		engine.sweeper = sweeper
	}

	return engine, nil
}

// RulesFromConfig maps the escalation section of the configuration onto
// policy rules.
func RulesFromConfig(cfg config.EscalationConfig) escalation.Rules {
	return escalation.Rules{
		ConfidenceThreshold:      cfg.ConfidenceThreshold,
		FallbackTrigger:          cfg.FallbackTrigger,
		RepeatTrigger:            cfg.RepeatTrigger,
		ComplexRequestWords:      cfg.ComplexRequestWords,
		ComplexConfidenceCeiling: cfg.ComplexConfidenceCeiling,
		EscalationPhrases:        cfg.EscalationPhrases,
		SensitiveKeywords:        cfg.SensitiveKeywords,
	}
}

func vocabularyFromConfig(cfg config.SignalsConfig) confidence.Vocabulary {
	return confidence.Vocabulary{
		ActionKeywords:   cfg.ActionKeywords,
		ErrorKeywords:    cfg.ErrorKeywords,
		AffirmativeWords: cfg.AffirmativeWords,
	}
}

// ApplyConfig swaps rules and vocabulary at runtime. Intended as the config
// watcher's reload callback; in-flight decisions keep the set they started
// with.
func (e *Engine) ApplyConfig(cfg *config.Config) {
	e.policy.SetRules(RulesFromConfig(cfg.Escalation))

	e.mu.Lock()
	e.evaluator = confidence.NewEvaluator(vocabularyFromConfig(cfg.Signals))
	e.mu.Unlock()

	e.logger.Info().
		Float64("confidence_threshold", cfg.Escalation.ConfidenceThreshold).
		Msg("Engine configuration reloaded")
}

// EvaluateAndDecide scores one turn, decides escalation against the session
// counters as they stood before this turn, then updates the counters and,
// when escalating, appends to the ledger. The error return covers malformed
// input only; ledger sink trouble never withholds a decision.
func (e *Engine) EvaluateAndDecide(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	turn := escalation.Turn{
		SessionID:    req.SessionID,
		Request:      req.RequestText,
		Response:     req.ResponseText,
		Capabilities: req.Capabilities,
		Elapsed:      req.Elapsed,
	}
	if err := turn.Validate(); err != nil {
		return nil, fmt.Errorf("invalid turn: %w", err)
	}

	ctx = tracing.WithSessionID(ctx, req.SessionID)
	if tracing.GetTraceID(ctx) == "" {
		ctx = tracing.WithTraceID(ctx, tracing.NewTraceID())
	}
	ctx, span := tracing.StartDecisionSpan(ctx, req.SessionID)
	defer span.End()

	e.mu.RLock()
	evaluator := e.evaluator
	e.mu.RUnlock()

	breakdown := evaluator.Evaluate(req.RequestText, req.ResponseText, req.Capabilities)

	counters := e.sessions.GetOrCreate(req.SessionID)
	decision := e.policy.Decide(turn, breakdown.Score, counters)

	e.sessions.RecordTurn(req.SessionID, breakdown.Score, decision.Threshold, req.Capabilities)
	e.sessions.RecordRepeat(req.SessionID, req.IsRepeatedRequest)

	if decision.ShouldEscalate {
		e.sessions.RecordEscalation(req.SessionID)
		record := e.ledger.Append(ctx, escalation.Record{
			SessionID: req.SessionID,
			Turn:      turn,
			Decision:  decision,
		})
		ctx = tracing.WithDecisionID(ctx, record.ID)
		tracing.MarkEscalated(span, string(decision.Type), string(decision.Priority))
		observability.RecordEscalation(string(decision.Type), string(decision.Priority))
	}

	observability.RecordDecision(decision.ShouldEscalate, breakdown.Score, time.Since(start))
	observability.RecordDecisionAudit(ctx, req.SessionID, decision.ShouldEscalate, map[string]interface{}{
		"confidence_score": breakdown.Score,
		"escalation_type":  string(decision.Type),
		"priority":         string(decision.Priority),
		"reasons":          decision.Reasons,
	})

	logger := tracing.LoggerFromContext(ctx, e.logger)
	logger.Info().
		Str("session_id", req.SessionID).
		Float64("confidence_score", breakdown.Score).
		Bool("escalated", decision.ShouldEscalate).
		Str("escalation_type", string(decision.Type)).
		Msg("Turn evaluated")

	return &Result{
		Confidence:        breakdown.Score,
		Breakdown:         breakdown,
		Decision:          decision,
		EscalationMessage: decision.Message(),
	}, nil
}

// Sessions exposes the session store for summaries and maintenance.
func (e *Engine) Sessions() *sessionstate.Store {
	return e.sessions
}

// Stats reports ledger aggregates against the active threshold.
func (e *Engine) Stats() escalation.Stats {
	return e.ledger.Stats(e.policy.Rules().ConfidenceThreshold)
}

// Close stops the sweeper and flushes the ledger sink.
func (e *Engine) Close() error {
	if e.sweeper != nil {
		e.sweeper.Stop()
	}
	return e.ledger.Close()
}
