package safety

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/portfolio-compliance/internal/audit"
	"github.com/quantdesk/portfolio-compliance/internal/errors"
)

// recordingNotifier captures alerts for assertions
type recordingNotifier struct {
	alerts []string
	fail   bool
}

func (n *recordingNotifier) SendAlert(level, message string) error {
	if n.fail {
		return fmt.Errorf("notifier unavailable")
	}
	n.alerts = append(n.alerts, level+": "+message)
	return nil
}

func newTestAuditLogger(t *testing.T) *audit.Logger {
	t.Helper()
	logger, err := audit.NewLogger(t.TempDir(), nil, nil)
	require.NoError(t, err)
	return logger
}

func testPositions() []OpenPosition {
	return []OpenPosition{
		{PositionID: "P-1", Instrument: "USDBRL", AssetClass: "fx", Direction: "long", Notional: 1_000_000, UnrealizedPnL: -12_000},
		{PositionID: "P-2", Instrument: "NTN-F 2030", AssetClass: "rates", Direction: "long", Notional: 50_000_000, UnrealizedPnL: 85_000},
		{PositionID: "P-3", Instrument: "IBOV futures", AssetClass: "equities", Direction: "short", Notional: 10_000_000, UnrealizedPnL: -40_000},
	}
}

func TestInitiate_EmptyReasonFailsClosed(t *testing.T) {
	stop := NewEmergencyStop(newTestAuditLogger(t), nil, nil)

	result, err := stop.Initiate(context.Background(), "", "risk_manager", testPositions())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsValidationError(err))
	assert.False(t, stop.IsFrozen(), "a rejected initiate must not freeze anything")
	assert.Equal(t, StateInactive, stop.GetState())
}

func TestInitiate_EmptyConfirmationFailsClosed(t *testing.T) {
	auditLogger := newTestAuditLogger(t)
	stop := NewEmergencyStop(auditLogger, nil, nil)

	_, err := stop.Initiate(context.Background(), "flash crash", "   ", nil)

	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.False(t, stop.IsFrozen())

	// Nothing may have been logged for the rejected attempt.
	trail, err := auditLogger.GetAuditTrail(audit.TrailFilter{})
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestInitiate_PositionsSortedByAbsoluteNotional(t *testing.T) {
	stop := NewEmergencyStop(newTestAuditLogger(t), nil, nil)

	result, err := stop.Initiate(context.Background(), "liquidity crisis", "risk_manager", testPositions())
	require.NoError(t, err)

	require.Len(t, result.Positions, 3)
	assert.Equal(t, 50_000_000.0, result.Positions[0].Notional)
	assert.Equal(t, 10_000_000.0, result.Positions[1].Notional)
	assert.Equal(t, 1_000_000.0, result.Positions[2].Notional)

	for i, item := range result.Positions {
		assert.Equal(t, i+1, item.Priority, "priorities are sequential after sorting")
		assert.True(t, item.NeedsUrgentClose)
	}
}

func TestInitiate_ShortPositionsSortByMagnitude(t *testing.T) {
	stop := NewEmergencyStop(newTestAuditLogger(t), nil, nil)

	positions := []OpenPosition{
		{PositionID: "P-1", Notional: 2_000_000},
		{PositionID: "P-2", Notional: -8_000_000}, // short, largest exposure
	}

	result, err := stop.Initiate(context.Background(), "crisis", "mgr", positions)
	require.NoError(t, err)

	assert.Equal(t, "P-2", result.Positions[0].PositionID)
	assert.Equal(t, 1, result.Positions[0].Priority)
}

func TestInitiate_MissingPositionFieldsDefaulted(t *testing.T) {
	stop := NewEmergencyStop(newTestAuditLogger(t), nil, nil)

	result, err := stop.Initiate(context.Background(), "crisis", "mgr", []OpenPosition{{}})
	require.NoError(t, err)

	require.Len(t, result.Positions, 1)
	item := result.Positions[0]
	assert.Equal(t, "unknown", item.PositionID)
	assert.Equal(t, "unknown", item.Instrument)
	assert.Equal(t, "unknown", item.AssetClass)
	assert.Equal(t, "unknown", item.Direction)
	assert.Equal(t, 0.0, item.Notional)
	assert.True(t, item.NeedsUrgentClose)
}

func TestInitiate_FreezesAndAudits(t *testing.T) {
	auditLogger := newTestAuditLogger(t)
	stop := NewEmergencyStop(auditLogger, nil, nil)

	result, err := stop.Initiate(context.Background(), "counterparty default", "risk_manager", testPositions())
	require.NoError(t, err)

	assert.True(t, stop.IsFrozen())
	assert.True(t, stop.IsActive())
	assert.True(t, result.ProposalsFrozen)
	assert.NotEmpty(t, result.ActivationID)
	assert.Len(t, result.Checklist, 7)

	require.NotNil(t, result.AuditRecord)
	assert.Equal(t, audit.EventEmergencyStop, result.AuditRecord.EventType)
	assert.Equal(t, audit.SeverityCritical, result.AuditRecord.Severity)
	assert.Equal(t, "emergency_stop", result.AuditRecord.EntityID)
	assert.InDelta(t, 3, result.AuditRecord.Metadata["positions_flagged"], 0)

	trail, err := auditLogger.GetAuditTrail(audit.TrailFilter{EventType: audit.EventEmergencyStop})
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}

func TestInitiate_WithoutAuditLoggerStillActivates(t *testing.T) {
	stop := NewEmergencyStop(nil, nil, nil)

	result, err := stop.Initiate(context.Background(), "audit store down", "risk_manager", nil)

	require.NoError(t, err, "the stop must never be blocked by audit unavailability")
	assert.True(t, stop.IsFrozen())
	assert.Nil(t, result.AuditRecord)
}

func TestInitiate_WhileActiveRerunsProcedure(t *testing.T) {
	stop := NewEmergencyStop(newTestAuditLogger(t), nil, nil)
	ctx := context.Background()

	first, err := stop.Initiate(ctx, "first trigger", "mgr", testPositions()[:1])
	require.NoError(t, err)
	assert.Len(t, first.Positions, 1)

	second, err := stop.Initiate(ctx, "second trigger", "mgr", testPositions())
	require.NoError(t, err)
	assert.Len(t, second.Positions, 3, "re-initiate rebuilds the report from the supplied positions")
	assert.True(t, stop.IsFrozen())
}

func TestReset_Lifecycle(t *testing.T) {
	auditLogger := newTestAuditLogger(t)
	stop := NewEmergencyStop(auditLogger, nil, nil)
	ctx := context.Background()

	_, err := stop.Initiate(ctx, "crisis", "risk_manager", nil)
	require.NoError(t, err)
	require.True(t, stop.IsFrozen())

	result, err := stop.Reset(ctx, "risk_manager")
	require.NoError(t, err)

	assert.True(t, result.WasActive)
	assert.False(t, result.ProposalsFrozen)
	assert.False(t, stop.IsFrozen())
	assert.Equal(t, StateInactive, stop.GetState())

	require.NotNil(t, result.AuditRecord)
	assert.Equal(t, audit.SeverityWarning, result.AuditRecord.Severity)
}

func TestReset_EmptyConfirmationRejected(t *testing.T) {
	stop := NewEmergencyStop(newTestAuditLogger(t), nil, nil)
	ctx := context.Background()

	_, err := stop.Initiate(ctx, "crisis", "mgr", nil)
	require.NoError(t, err)

	_, err = stop.Reset(ctx, "")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.True(t, stop.IsFrozen(), "a rejected reset keeps the freeze in place")
}

func TestReset_WhileInactiveIsNoOp(t *testing.T) {
	auditLogger := newTestAuditLogger(t)
	stop := NewEmergencyStop(auditLogger, nil, nil)

	result, err := stop.Reset(context.Background(), "risk_manager")
	require.NoError(t, err)

	assert.False(t, result.WasActive)
	assert.Nil(t, result.AuditRecord)

	trail, err := auditLogger.GetAuditTrail(audit.TrailFilter{})
	require.NoError(t, err)
	assert.Empty(t, trail, "a no-op reset writes no audit event")
}

func TestInitiate_NotifierFailureSwallowed(t *testing.T) {
	notifier := &recordingNotifier{fail: true}
	stop := NewEmergencyStop(newTestAuditLogger(t), notifier, nil)

	_, err := stop.Initiate(context.Background(), "crisis", "mgr", nil)

	require.NoError(t, err, "notification failure must not block the stop")
	assert.True(t, stop.IsFrozen())
}

func TestInitiate_SendsAlert(t *testing.T) {
	notifier := &recordingNotifier{}
	stop := NewEmergencyStop(newTestAuditLogger(t), notifier, nil)

	_, err := stop.Initiate(context.Background(), "flash crash", "risk_manager", testPositions())
	require.NoError(t, err)

	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0], "critical: ")
	assert.Contains(t, notifier.alerts[0], "EMERGENCY STOP")
	assert.Contains(t, notifier.alerts[0], "flash crash")
	assert.Contains(t, notifier.alerts[0], "Positions flagged for manual close: 3")
}

// recordingFreezeTracker captures freeze transitions for assertions
type recordingFreezeTracker struct {
	frozen      bool
	transitions int
}

func (f *recordingFreezeTracker) SetProposalsFrozen(frozen bool) {
	f.frozen = frozen
	f.transitions++
}

func TestFreezeTracker_MirrorsStopLifecycle(t *testing.T) {
	tracker := &recordingFreezeTracker{}
	stop := NewEmergencyStop(newTestAuditLogger(t), nil, nil)
	stop.SetFreezeTracker(tracker)

	_, err := stop.Initiate(context.Background(), "liquidity crisis", "mgr", nil)
	require.NoError(t, err)
	assert.True(t, tracker.frozen)

	_, err = stop.Reset(context.Background(), "mgr")
	require.NoError(t, err)
	assert.False(t, tracker.frozen)
	assert.Equal(t, 2, tracker.transitions)
}

func TestFreezeTracker_NotTouchedWhenValidationFails(t *testing.T) {
	tracker := &recordingFreezeTracker{}
	stop := NewEmergencyStop(newTestAuditLogger(t), nil, nil)
	stop.SetFreezeTracker(tracker)

	_, err := stop.Initiate(context.Background(), "", "mgr", nil)
	require.Error(t, err)
	assert.Zero(t, tracker.transitions)
}
