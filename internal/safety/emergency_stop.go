package safety

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantdesk/portfolio-compliance/internal/audit"
	"github.com/quantdesk/portfolio-compliance/internal/errors"
	"github.com/quantdesk/portfolio-compliance/internal/monitoring"
	"github.com/quantdesk/portfolio-compliance/internal/notifications"
)

// stopChecklist is the fixed, ordered set of manual actions an operator
// works through after a stop. The system never executes closes itself.
var stopChecklist = []string{
	"1. Review the prioritized position report below",
	"2. Close positions manually in priority order (largest exposure first)",
	"3. Verify no resting orders remain at any venue",
	"4. Notify risk management and portfolio manager",
	"5. Document the incident: trigger, timeline, actions taken",
	"6. Call Reset with manager confirmation once the situation is resolved",
	"7. Run a post-mortem before resuming normal operation",
}

// EmergencyStop is the manual circuit breaker for crisis response. It
// marks, reports and freezes; a human executes the closes. The only
// transitions are INACTIVE -> ACTIVE via Initiate and ACTIVE -> INACTIVE
// via Reset, each requiring an explicit manager confirmation. Nothing
// ever transitions out of ACTIVE automatically.
type EmergencyStop struct {
	mu          sync.RWMutex
	state       State
	frozen      bool
	activatedAt time.Time
	activatedBy string
	reason      string

	auditLogger *audit.Logger
	notifier    notifications.Notifier
	log         *zap.Logger
	freeze      FreezeTracker
}

// FreezeTracker mirrors the proposal freeze flag into an operational
// health surface. monitoring.HealthChecker satisfies it.
type FreezeTracker interface {
	SetProposalsFrozen(frozen bool)
}

// SetFreezeTracker attaches an optional health surface updated on every
// freeze transition.
func (es *EmergencyStop) SetFreezeTracker(t FreezeTracker) {
	es.freeze = t
}

// NewEmergencyStop creates an emergency stop procedure. auditLogger and
// notifier may be nil; the stop must remain usable even when audit
// logging is unavailable.
func NewEmergencyStop(auditLogger *audit.Logger, notifier notifications.Notifier, log *zap.Logger) *EmergencyStop {
	if log == nil {
		log = zap.NewNop()
	}
	return &EmergencyStop{
		state:       StateInactive,
		auditLogger: auditLogger,
		notifier:    notifier,
		log:         log,
	}
}

// Initiate triggers the emergency stop: freezes new trade proposal
// generation, flags every supplied position for urgent manual closure
// (largest absolute notional first), writes a CRITICAL audit event and
// returns the full crisis-response bundle.
//
// Empty reason or confirmation fails closed with a validation error;
// nothing is frozen or logged in that case. Initiating while already
// active is allowed and re-runs the procedure against the supplied
// positions.
func (es *EmergencyStop) Initiate(ctx context.Context, reason, managerConfirmation string, positions []OpenPosition) (*StopResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.NewValidationError("emergency_stop", "initiate", "reason must not be empty")
	}
	if strings.TrimSpace(managerConfirmation) == "" {
		return nil, errors.NewValidationError("emergency_stop", "initiate", "manager confirmation must not be empty")
	}

	now := time.Now().UTC()

	es.mu.Lock()
	es.state = StateActive
	es.frozen = true
	es.activatedAt = now
	es.activatedBy = managerConfirmation
	es.reason = reason
	es.mu.Unlock()

	monitoring.SetEmergencyStopActive(true)
	if es.freeze != nil {
		es.freeze.SetProposalsFrozen(true)
	}

	report := buildPositionReport(positions)

	result := &StopResult{
		ActivationID:    uuid.NewString(),
		ActivatedAt:     now,
		ActivatedBy:     managerConfirmation,
		Reason:          reason,
		Positions:       report,
		ProposalsFrozen: true,
		Checklist:       stopChecklist,
	}

	if es.auditLogger != nil {
		result.AuditRecord = es.auditLogger.LogEvent(ctx, audit.Event{
			Type:       audit.EventEmergencyStop,
			EntityType: "system",
			EntityID:   "emergency_stop",
			User:       managerConfirmation,
			Action:     "Emergency stop initiated: " + reason,
			Metadata: map[string]interface{}{
				"activation_id":     result.ActivationID,
				"positions_flagged": len(report),
			},
			Severity: audit.SeverityCritical,
		})
	} else {
		// The stop itself must never be blocked by audit unavailability.
		es.log.Warn("emergency stop initiated without audit logger, no audit record written",
			zap.String("reason", reason))
	}

	es.alert(notifications.LevelCritical,
		notifications.FormatStopAlert(reason, managerConfirmation, len(report)))

	es.log.Error("emergency stop active, trade proposal generation frozen",
		zap.String("reason", reason),
		zap.String("confirmed_by", managerConfirmation),
		zap.Int("positions_flagged", len(report)))

	return result, nil
}

// Reset restores normal proposal generation after the crisis is
// resolved. It requires its own manager confirmation and never happens
// automatically. Resetting does not un-flag positions. Resetting while
// inactive is a no-op result.
func (es *EmergencyStop) Reset(ctx context.Context, managerConfirmation string) (*ResetResult, error) {
	if strings.TrimSpace(managerConfirmation) == "" {
		return nil, errors.NewValidationError("emergency_stop", "reset", "manager confirmation must not be empty")
	}

	es.mu.Lock()
	wasActive := es.state == StateActive
	es.state = StateInactive
	es.frozen = false
	es.mu.Unlock()

	monitoring.SetEmergencyStopActive(false)
	if es.freeze != nil {
		es.freeze.SetProposalsFrozen(false)
	}

	result := &ResetResult{
		WasActive:       wasActive,
		ResetAt:         time.Now().UTC(),
		ResetBy:         managerConfirmation,
		ProposalsFrozen: false,
	}

	if !wasActive {
		return result, nil
	}

	if es.auditLogger != nil {
		result.AuditRecord = es.auditLogger.LogEvent(ctx, audit.Event{
			Type:       audit.EventEmergencyStop,
			EntityType: "system",
			EntityID:   "emergency_stop",
			User:       managerConfirmation,
			Action:     "Emergency stop reset, normal proposal generation restored",
			Severity:   audit.SeverityWarning,
		})
	} else {
		es.log.Warn("emergency stop reset without audit logger, no audit record written")
	}

	es.alert(notifications.LevelWarning, notifications.FormatResetAlert(managerConfirmation))

	es.log.Warn("emergency stop reset", zap.String("confirmed_by", managerConfirmation))

	return result, nil
}

// IsFrozen reports whether new trade proposal generation is frozen.
// Proposal generators must consult this before producing new trades.
func (es *EmergencyStop) IsFrozen() bool {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return es.frozen
}

// IsActive reports whether the stop is currently active
func (es *EmergencyStop) IsActive() bool {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return es.state == StateActive
}

// GetState returns the current state of the emergency stop
func (es *EmergencyStop) GetState() State {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return es.state
}

// alert sends a best-effort notification; failures are logged and swallowed
func (es *EmergencyStop) alert(level, message string) {
	if es.notifier == nil {
		return
	}
	if err := es.notifier.SendAlert(level, message); err != nil {
		es.log.Warn("failed to send emergency stop alert", zap.Error(err))
	}
}

// buildPositionReport flags every position for urgent close, sorts the
// list by absolute notional descending and assigns sequential priorities
// after sorting, so the highest-risk exposures surface first regardless
// of input order.
func buildPositionReport(positions []OpenPosition) []PositionCloseItem {
	report := make([]PositionCloseItem, 0, len(positions))
	for _, pos := range positions {
		item := PositionCloseItem{
			PositionID:       pos.PositionID,
			Instrument:       pos.Instrument,
			AssetClass:       pos.AssetClass,
			Direction:        pos.Direction,
			Notional:         pos.Notional,
			UnrealizedPnL:    pos.UnrealizedPnL,
			NeedsUrgentClose: true,
			Notes:            "Close manually, largest exposure first",
		}
		if item.PositionID == "" {
			item.PositionID = "unknown"
		}
		if item.Instrument == "" {
			item.Instrument = "unknown"
		}
		if item.AssetClass == "" {
			item.AssetClass = "unknown"
		}
		if item.Direction == "" {
			item.Direction = "unknown"
		}
		report = append(report, item)
	}

	sort.SliceStable(report, func(i, j int) bool {
		return math.Abs(report[i].Notional) > math.Abs(report[j].Notional)
	})

	for i := range report {
		report[i].Priority = i + 1
	}

	return report
}
