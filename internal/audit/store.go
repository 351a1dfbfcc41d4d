package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileStore is the primary append-only audit store: one JSON record per
// line, UTF-8, never rewritten. Appends are serialized by a mutex so
// concurrent callers cannot interleave partial lines; each write opens,
// appends and closes the file so there is no long-lived handle to leak.
type fileStore struct {
	mu   sync.Mutex
	path string
}

func newFileStore(dir, filename string) (*fileStore, error) {
	if dir == "" {
		dir = "audit_logs"
	}
	if filename == "" {
		filename = "audit_trail.jsonl"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	return &fileStore{path: filepath.Join(dir, filename)}, nil
}

// Append writes one record as a single JSON line
func (s *fileStore) Append(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	return nil
}

// Scan reads every well-formed record currently flushed to the store,
// oldest first. Malformed lines are counted and skipped, never fatal:
// one corrupt line must not make the whole trail unreadable.
func (s *fileStore) Scan() ([]Record, int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []Record
	skipped := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return records, skipped, fmt.Errorf("failed to scan audit log: %w", err)
	}

	return records, skipped, nil
}

// Path returns the primary store path
func (s *fileStore) Path() string {
	return s.path
}

// TrailFilter narrows a GetAuditTrail scan. Zero values mean "no filter";
// time bounds are inclusive.
type TrailFilter struct {
	EventType EventType
	EntityID  string
	Severity  Severity
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

func (f TrailFilter) matches(rec *Record) bool {
	if f.EventType != "" && rec.EventType != f.EventType {
		return false
	}
	if f.EntityID != "" && rec.EntityID != f.EntityID {
		return false
	}
	if f.Severity != "" && rec.Severity != f.Severity {
		return false
	}
	if !f.StartTime.IsZero() && rec.EventTimestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && rec.EventTimestamp.After(f.EndTime) {
		return false
	}
	return true
}
