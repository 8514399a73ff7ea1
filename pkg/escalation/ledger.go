package escalation

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rizki/eskala/internal/observability"
)

// Stats summarizes the ledger for reporting. AverageConfidence covers only
// escalated turns, rounded to two decimals.
type Stats struct {
	Total             int              `json:"total_escalations"`
	ByType            map[Type]int     `json:"escalation_types,omitempty"`
	ByPriority        map[Priority]int `json:"priority_distribution,omitempty"`
	AverageConfidence float64          `json:"average_confidence_when_escalated,omitempty"`
	Threshold         float64          `json:"confidence_threshold,omitempty"`
}

// Ledger is the append-only in-memory log of escalated turns. An optional
// sink persists each record as it is appended; sink failures are reported
// through logs and metrics but never fail the append, so a full decision is
// always returned to the caller.
type Ledger struct {
	mu      sync.RWMutex
	records []Record
	sink    Sink
	logger  zerolog.Logger
}

// NewLedger builds a ledger. sink may be nil for memory-only operation.
func NewLedger(logger zerolog.Logger, sink Sink) *Ledger {
	observability.EnsureRegistered()
	return &Ledger{
		sink:   sink,
		logger: logger.With().Str("component", "escalation_ledger").Logger(),
	}
}

// Append stores one escalated record, assigning an identifier and timestamp
// when the caller left them empty, and returns the stored record. Concurrent
// appends are serialized.
func (l *Ledger) Append(ctx context.Context, record Record) Record {
	start := time.Now()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	l.records = append(l.records, record)
	size := len(l.records)
	l.mu.Unlock()

	if l.sink != nil {
		if err := l.sink.Append(record); err != nil {
			l.logger.Warn().
				Err(err).
				Str("record_id", record.ID).
				Str("session_id", record.SessionID).
				Msg("Failed to persist escalation record")
			observability.RecordSinkError()
			observability.RecordSinkAudit(ctx, record.SessionID, "failure", map[string]interface{}{
				"record_id": record.ID,
				"error":     err.Error(),
			})
		}
	}

	observability.RecordLedgerAppend(size, time.Since(start))
	l.logger.Debug().
		Str("record_id", record.ID).
		Str("session_id", record.SessionID).
		Str("escalation_type", string(record.Decision.Type)).
		Str("priority", string(record.Decision.Priority)).
		Msg("Escalation recorded")

	return record
}

// Load seeds the ledger with previously persisted records, oldest first.
// Intended for startup replay before new turns are processed.
func (l *Ledger) Load(records []Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, records...)
}

// Records returns a copy of all stored records in append order.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len reports the number of stored records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Stats aggregates the ledger. An empty ledger reports zero totals and no
// breakdowns rather than an error. threshold is echoed back for context.
func (l *Ledger) Stats(threshold float64) Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.records) == 0 {
		return Stats{}
	}

	byType := make(map[Type]int)
	byPriority := make(map[Priority]int)
	var confidenceSum float64
	for _, record := range l.records {
		byType[record.Decision.Type]++
		byPriority[record.Decision.Priority]++
		confidenceSum += record.Decision.Confidence
	}

	total := len(l.records)
	return Stats{
		Total:             total,
		ByType:            byType,
		ByPriority:        byPriority,
		AverageConfidence: math.Round(confidenceSum/float64(total)*100) / 100,
		Threshold:         threshold,
	}
}

// Close flushes and closes the sink, if any.
func (l *Ledger) Close() error {
	if l.sink == nil {
		return nil
	}
	return l.sink.Close()
}
