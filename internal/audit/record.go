package audit

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventType identifies the kind of compliance event being recorded.
// The constants below are the known set; free-form values are accepted
// for ad hoc events.
type EventType string

const (
	EventPositionOpen         EventType = "POSITION_OPEN"
	EventPositionClose        EventType = "POSITION_CLOSE"
	EventTradeApproved        EventType = "TRADE_APPROVED"
	EventTradeRejected        EventType = "TRADE_REJECTED"
	EventRiskBreach           EventType = "RISK_BREACH"
	EventEmergencyStop        EventType = "EMERGENCY_STOP"
	EventMTMUpdate            EventType = "MTM_UPDATE"
	EventMorningPackGenerated EventType = "MORNING_PACK_GENERATED"
	EventSystemStartup        EventType = "SYSTEM_STARTUP"
	EventSystemShutdown       EventType = "SYSTEM_SHUTDOWN"
)

// Severity classifies how serious an audit event is
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Record is one immutable audit trail entry. Records are created once at
// log time and never mutated or deleted afterwards.
//
// The checksum covers the canonical fields only: timestamp, event type,
// entity type/id, user, action, before/after state and severity. ID and
// Metadata are deliberately outside integrity coverage so that late
// enrichment never invalidates a stored checksum.
type Record struct {
	ID             string                 `json:"id"`
	EventTimestamp time.Time              `json:"event_timestamp"`
	EventType      EventType              `json:"event_type"`
	EntityType     string                 `json:"entity_type"`
	EntityID       string                 `json:"entity_id"`
	User           string                 `json:"user"`
	Action         string                 `json:"action"`
	BeforeState    map[string]interface{} `json:"before_state"`
	AfterState     map[string]interface{} `json:"after_state"`
	Metadata       map[string]interface{} `json:"metadata"`
	Severity       Severity               `json:"severity"`
	Checksum       string                 `json:"checksum"`
}

// ComputeChecksum returns the SHA-256 hex digest over the record's
// canonical fields. Recomputing on a stored record must reproduce
// Record.Checksum exactly.
func (r *Record) ComputeChecksum() string {
	parts := []string{
		r.EventTimestamp.UTC().Format(time.RFC3339Nano),
		string(r.EventType),
		r.EntityType,
		r.EntityID,
		r.User,
		r.Action,
		serializeState(r.BeforeState),
		serializeState(r.AfterState),
		string(r.Severity),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", sum[:])
}

// VerifyChecksum recomputes the digest and compares it against the stored one
func (r *Record) VerifyChecksum() bool {
	return r.ComputeChecksum() == r.Checksum
}

// serializeState produces a canonical JSON form of a state snapshot.
// encoding/json sorts map keys, so equal snapshots always serialize
// identically. A nil snapshot serializes as "null".
func serializeState(state map[string]interface{}) string {
	data, err := json.Marshal(state)
	if err != nil {
		return "null"
	}
	return string(data)
}
