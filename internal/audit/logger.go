package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantdesk/portfolio-compliance/internal/monitoring"
)

// DefaultTrailLimit caps a GetAuditTrail scan when the caller does not
// supply a limit of their own.
const DefaultTrailLimit = 500

// Event carries the caller-supplied fields of one audit record
type Event struct {
	Type        EventType
	EntityType  string
	EntityID    string
	User        string
	Action      string
	BeforeState map[string]interface{}
	AfterState  map[string]interface{}
	Metadata    map[string]interface{}
	Severity    Severity
}

// HealthTracker receives durability signals from the audit write path,
// so an operational health surface can report store availability without
// polling. monitoring.HealthChecker satisfies it.
type HealthTracker interface {
	RecordAuditWrite()
	SetPrimaryAvailable(available bool)
	SetSecondaryConnected(connected bool)
}

// Logger appends immutable, checksummed records to the primary
// append-only store and mirrors each one, best-effort, to an optional
// secondary store. The primary store is the source of truth; secondary
// failures are logged and swallowed, never propagated.
type Logger struct {
	store     *fileStore
	secondary SecondaryStore
	log       *zap.Logger
	health    HealthTracker
}

// SetHealthTracker attaches an optional health surface that is updated
// on every primary and secondary write attempt.
func (l *Logger) SetHealthTracker(h HealthTracker) {
	l.health = h
}

// NewLogger creates an audit logger writing to logDir (created if
// absent). secondary may be nil; log may be nil, in which case
// operational logging is discarded.
func NewLogger(logDir string, log *zap.Logger, secondary SecondaryStore) (*Logger, error) {
	if log == nil {
		log = zap.NewNop()
	}

	store, err := newFileStore(logDir, "")
	if err != nil {
		return nil, err
	}

	return &Logger{
		store:     store,
		secondary: secondary,
		log:       log,
	}, nil
}

// LogEvent builds, checksums and persists one audit record, returning the
// fully constructed record.
//
// A primary-store write failure is logged at error level but does not
// fail the call: availability is favoured over strict durability, so the
// caller must treat "no panic" as "attempted" rather than "fsynced". The
// secondary write is fire-and-forget.
func (l *Logger) LogEvent(ctx context.Context, e Event) *Record {
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
	if e.User == "" {
		e.User = "system"
	}

	rec := &Record{
		ID:             uuid.NewString(),
		EventTimestamp: time.Now().UTC(),
		EventType:      e.Type,
		EntityType:     e.EntityType,
		EntityID:       e.EntityID,
		User:           e.User,
		Action:         e.Action,
		BeforeState:    e.BeforeState,
		AfterState:     e.AfterState,
		Metadata:       e.Metadata,
		Severity:       e.Severity,
	}
	rec.Checksum = rec.ComputeChecksum()

	if err := l.store.Append(rec); err != nil {
		monitoring.RecordAuditWriteFailure("primary")
		if l.health != nil {
			l.health.SetPrimaryAvailable(false)
		}
		l.log.Error("primary audit store write failed",
			zap.String("event_type", string(rec.EventType)),
			zap.String("entity_id", rec.EntityID),
			zap.Error(err))
	} else {
		monitoring.RecordAuditEvent(string(rec.EventType), string(rec.Severity))
		if l.health != nil {
			l.health.RecordAuditWrite()
		}
	}

	l.mirrorToSecondary(ctx, rec)

	return rec
}

// mirrorToSecondary attempts the best-effort secondary write. Any failure
// is captured here and logged as a warning; it must never unwind the
// primary write path.
func (l *Logger) mirrorToSecondary(ctx context.Context, rec *Record) {
	if l.secondary == nil {
		return
	}

	if err := l.secondary.Insert(ctx, rec); err != nil {
		monitoring.RecordAuditWriteFailure("secondary")
		if l.health != nil {
			l.health.SetSecondaryConnected(false)
		}
		l.log.Warn("secondary audit store write failed",
			zap.String("record_id", rec.ID),
			zap.String("event_type", string(rec.EventType)),
			zap.Error(err))
		return
	}

	if l.health != nil {
		l.health.SetSecondaryConnected(true)
	}
}

// LogRiskBreach records a breached risk limit at CRITICAL severity,
// embedding the limit utilization percentage into metadata. entityID
// defaults to "portfolio" and user to "system" when empty.
func (l *Logger) LogRiskBreach(ctx context.Context, limitName string, currentValue, limitValue float64, entityID, user string, metadata map[string]interface{}) *Record {
	if entityID == "" {
		entityID = "portfolio"
	}
	if user == "" {
		user = "system"
	}

	utilization := 0.0
	if limitValue != 0 {
		utilization = currentValue / limitValue * 100
	}

	enriched := make(map[string]interface{}, len(metadata)+4)
	for k, v := range metadata {
		enriched[k] = v
	}
	enriched["limit_name"] = limitName
	enriched["current_value"] = currentValue
	enriched["limit_value"] = limitValue
	enriched["utilization_pct"] = utilization

	monitoring.RecordRiskBreach(limitName)

	return l.LogEvent(ctx, Event{
		Type:       EventRiskBreach,
		EntityType: "risk_limit",
		EntityID:   entityID,
		User:       user,
		Action:     "Risk limit breached: " + limitName,
		Metadata:   enriched,
		Severity:   SeverityCritical,
	})
}

// GetAuditTrail scans the primary store and returns at most filter.Limit
// records matching all supplied filters, ordered most-recent-first.
//
// This path is for operational and compliance review; heavy analytical
// querying belongs on the secondary store.
func (l *Logger) GetAuditTrail(filter TrailFilter) ([]Record, error) {
	records, skipped, err := l.store.Scan()
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		l.log.Warn("skipped malformed audit log lines", zap.Int("count", skipped))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultTrailLimit
	}

	// Records are appended chronologically, so walking the scan backwards
	// yields most-recent-first without a sort.
	matched := make([]Record, 0, limit)
	for i := len(records) - 1; i >= 0 && len(matched) < limit; i-- {
		if filter.matches(&records[i]) {
			matched = append(matched, records[i])
		}
	}

	return matched, nil
}

// TrailPath returns the path of the primary append-only store
func (l *Logger) TrailPath() string {
	return l.store.Path()
}
