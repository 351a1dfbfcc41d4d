package main

import (
	"encoding/json"
	"net/http"

	"github.com/quantdesk/portfolio-compliance/internal/audit"
	"github.com/quantdesk/portfolio-compliance/internal/errors"
	"github.com/quantdesk/portfolio-compliance/internal/notifications"
	"github.com/quantdesk/portfolio-compliance/internal/risk"
	"github.com/quantdesk/portfolio-compliance/internal/safety"
)

type validateTradeRequest struct {
	TradeID           string              `json:"trade_id"`
	User              string              `json:"user"`
	Notional          float64             `json:"notional"`
	AssetClass        string              `json:"asset_class"`
	ProposedWeight    float64             `json:"proposed_weight"`
	ProposedVaRImpact float64             `json:"proposed_var_impact"`
	PortfolioState    risk.PortfolioState `json:"portfolio_state"`
}

type validateTradeResponse struct {
	TradeID       string                 `json:"trade_id"`
	Frozen        bool                   `json:"frozen"`
	Result        *risk.ValidationResult `json:"result,omitempty"`
	AuditRecordID string                 `json:"audit_record_id,omitempty"`
}

type stopInitiateRequest struct {
	Reason              string                `json:"reason"`
	ManagerConfirmation string                `json:"manager_confirmation"`
	Positions           []safety.OpenPosition `json:"positions"`
}

type stopResetRequest struct {
	ManagerConfirmation string `json:"manager_confirmation"`
}

type statusResponse struct {
	EmergencyStopState string `json:"emergency_stop_state"`
	ProposalsFrozen    bool   `json:"proposals_frozen"`
	AuditTrailPath     string `json:"audit_trail_path"`
}

func (d *daemon) adminMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", d.handleStatus)
	mux.HandleFunc("/validate-trade", d.handleValidateTrade)
	mux.HandleFunc("/emergency-stop/initiate", d.handleStopInitiate)
	mux.HandleFunc("/emergency-stop/reset", d.handleStopReset)
	return mux
}

func (d *daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		EmergencyStopState: d.stop.GetState().String(),
		ProposalsFrozen:    d.stop.IsFrozen(),
		AuditTrailPath:     d.auditLogger.TrailPath(),
	})
}

// handleValidateTrade runs the pre-trade checks against a proposed
// trade and writes the verdict to the audit trail. While the emergency
// stop is active the trade is rejected at the gate without running the
// checks.
func (d *daemon) handleValidateTrade(w http.ResponseWriter, r *http.Request) {
	var req validateTradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if d.stop.IsFrozen() {
		rec := d.auditLogger.LogEvent(r.Context(), audit.Event{
			Type:       audit.EventTradeRejected,
			EntityType: "trade",
			EntityID:   req.TradeID,
			User:       req.User,
			Action:     "Trade rejected: proposals frozen by emergency stop",
			Severity:   audit.SeverityWarning,
		})
		writeJSON(w, http.StatusConflict, validateTradeResponse{
			TradeID:       req.TradeID,
			Frozen:        true,
			AuditRecordID: rec.ID,
		})
		return
	}

	result := d.controls.ValidateTrade(
		req.Notional, req.AssetClass, req.PortfolioState,
		req.ProposedWeight, req.ProposedVaRImpact)

	eventType := audit.EventTradeApproved
	severity := audit.SeverityInfo
	action := "Trade approved by pre-trade risk controls"
	if !result.Approved {
		eventType = audit.EventTradeRejected
		severity = audit.SeverityWarning
		action = "Trade rejected by pre-trade risk controls"
	}

	rec := d.auditLogger.LogEvent(r.Context(), audit.Event{
		Type:       eventType,
		EntityType: "trade",
		EntityID:   req.TradeID,
		User:       req.User,
		Action:     action,
		AfterState: map[string]interface{}{
			"notional":    req.Notional,
			"asset_class": req.AssetClass,
			"approved":    result.Approved,
		},
		Metadata: map[string]interface{}{
			"hard_blocks": len(result.HardBlocks),
			"warnings":    len(result.Warnings),
		},
		Severity: severity,
	})

	for _, block := range result.HardBlocks {
		d.auditLogger.LogRiskBreach(r.Context(), block.Name, block.Value, block.Limit,
			req.TradeID, req.User, map[string]interface{}{"trade_id": req.TradeID})
		d.alert(notifications.LevelCritical, notifications.FormatBreachAlert(
			block.Name, block.Value, block.Limit, utilizationPct(block)))
	}

	writeJSON(w, http.StatusOK, validateTradeResponse{
		TradeID:       req.TradeID,
		Result:        result,
		AuditRecordID: rec.ID,
	})
}

func (d *daemon) handleStopInitiate(w http.ResponseWriter, r *http.Request) {
	var req stopInitiateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := d.stop.Initiate(r.Context(), req.Reason, req.ManagerConfirmation, req.Positions)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (d *daemon) handleStopReset(w http.ResponseWriter, r *http.Request) {
	var req stopResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := d.stop.Reset(r.Context(), req.ManagerConfirmation)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func utilizationPct(check risk.CheckResult) float64 {
	if check.Limit == 0 {
		return 0
	}
	return check.Value / check.Limit * 100
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.IsValidationError(err) {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
