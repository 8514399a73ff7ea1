package escalation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Sink persists escalation records outside process memory.
type Sink interface {
	Append(record Record) error
	Close() error
}

// JSONLSink appends one JSON object per line to a file. The file is opened
// append-only and synced after every write so records survive a crash.
type JSONLSink struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewJSONLSink opens (or creates) the sink file at path.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sink directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open sink file: %w", err)
	}
	return &JSONLSink{file: file, path: path}, nil
}

// Append writes record as one JSONL line and syncs the file.
func (s *JSONLSink) Append(record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal escalation record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return fmt.Errorf("sink is closed")
	}
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write escalation record: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync sink file: %w", err)
	}
	return nil
}

// Path returns the sink file location.
func (s *JSONLSink) Path() string {
	return s.path
}

// Close closes the underlying file. Further appends fail.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// ReplaySink reads back all records from a JSONL sink file, oldest first.
// Corrupt lines are logged and skipped so one bad write cannot block
// startup. A missing file yields an empty slice.
func ReplaySink(path string, logger zerolog.Logger) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open sink file: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var record Record
		if err := json.Unmarshal(text, &record); err != nil {
			logger.Warn().
				Err(err).
				Str("path", path).
				Int("line", line).
				Msg("Skipping corrupt escalation record")
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sink file: %w", err)
	}
	return records, nil
}
