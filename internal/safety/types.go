package safety

import (
	"time"

	"github.com/quantdesk/portfolio-compliance/internal/audit"
)

// State represents the emergency stop state
type State int

const (
	StateInactive State = iota
	StateActive
)

// String returns the string representation of the emergency stop state
func (s State) String() string {
	switch s {
	case StateInactive:
		return "INACTIVE"
	case StateActive:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// OpenPosition is the caller-supplied view of one open position. Missing
// fields default to safe placeholders rather than failing the stop:
// availability of the procedure during a crisis takes priority over
// strict input validation.
type OpenPosition struct {
	PositionID    string  `json:"position_id"`
	Instrument    string  `json:"instrument"`
	AssetClass    string  `json:"asset_class"`
	Direction     string  `json:"direction"`
	Notional      float64 `json:"notional"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// PositionCloseItem is one position flagged for urgent manual closure
type PositionCloseItem struct {
	PositionID       string  `json:"position_id"`
	Instrument       string  `json:"instrument"`
	AssetClass       string  `json:"asset_class"`
	Direction        string  `json:"direction"`
	Notional         float64 `json:"notional"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	Priority         int     `json:"priority"`
	NeedsUrgentClose bool    `json:"needs_urgent_close"`
	Notes            string  `json:"notes"`
}

// StopResult aggregates everything a stop activation produced: the
// prioritized position report, the freeze state, the human checklist and
// the audit record written for the activation (nil when no audit logger
// was configured).
type StopResult struct {
	ActivationID     string              `json:"activation_id"`
	ActivatedAt      time.Time           `json:"activated_at"`
	ActivatedBy      string              `json:"activated_by"`
	Reason           string              `json:"reason"`
	Positions        []PositionCloseItem `json:"positions"`
	ProposalsFrozen  bool                `json:"proposals_frozen"`
	Checklist        []string            `json:"checklist"`
	AuditRecord      *audit.Record       `json:"audit_record,omitempty"`
}

// ResetResult confirms a reset back to normal operation
type ResetResult struct {
	WasActive       bool          `json:"was_active"`
	ResetAt         time.Time     `json:"reset_at"`
	ResetBy         string        `json:"reset_by"`
	ProposalsFrozen bool          `json:"proposals_frozen"`
	AuditRecord     *audit.Record `json:"audit_record,omitempty"`
}
