package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks the operational health of the compliance core:
// whether the primary audit store is accepting writes, when the last
// record landed, and whether the secondary store is reachable.
type HealthChecker struct {
	mu                 sync.RWMutex
	lastAuditWrite     time.Time
	primaryAvailable   bool
	secondaryConnected bool
	frozen             bool
	errors             []string
}

type HealthStatus struct {
	Status             string    `json:"status"`
	Timestamp          time.Time `json:"timestamp"`
	LastAuditWrite     time.Time `json:"last_audit_write"`
	PrimaryAvailable   bool      `json:"primary_available"`
	SecondaryConnected bool      `json:"secondary_connected"`
	ProposalsFrozen    bool      `json:"proposals_frozen"`
	Uptime             string    `json:"uptime"`
	Errors             []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		primaryAvailable: true,
		errors:           make([]string, 0),
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.secondaryConnected {
		status = "degraded"
	}

	if !h.primaryAvailable || len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:             status,
		Timestamp:          time.Now(),
		LastAuditWrite:     h.lastAuditWrite,
		PrimaryAvailable:   h.primaryAvailable,
		SecondaryConnected: h.secondaryConnected,
		ProposalsFrozen:    h.frozen,
		Uptime:             time.Since(startTime).String(),
		Errors:             h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// RecordAuditWrite marks a successful primary-store append
func (h *HealthChecker) RecordAuditWrite() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastAuditWrite = time.Now()
	h.primaryAvailable = true
}

// SetPrimaryAvailable updates primary audit store availability
func (h *HealthChecker) SetPrimaryAvailable(available bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.primaryAvailable = available
}

// SetSecondaryConnected updates secondary store connectivity
func (h *HealthChecker) SetSecondaryConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.secondaryConnected = connected
}

// SetProposalsFrozen mirrors the emergency stop freeze flag
func (h *HealthChecker) SetProposalsFrozen(frozen bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frozen = frozen
}

// AddError appends an operational error to the health report
func (h *HealthChecker) AddError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}
