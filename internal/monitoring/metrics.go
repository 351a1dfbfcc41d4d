package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Audit trail metrics
	auditEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_audit_events_total",
			Help: "Total number of audit events written to the primary store",
		},
		[]string{"event_type", "severity"},
	)

	auditWriteFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_audit_write_failures_total",
			Help: "Total number of failed audit store writes by store",
		},
		[]string{"store"},
	)

	// Pre-trade risk metrics
	tradeValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_trade_validations_total",
			Help: "Total number of pre-trade validations by verdict",
		},
		[]string{"verdict"},
	)

	riskCheckFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_risk_check_failures_total",
			Help: "Total number of failed pre-trade risk checks by check name",
		},
		[]string{"check"},
	)

	riskBreachesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_risk_breaches_total",
			Help: "Total number of recorded risk limit breaches",
		},
		[]string{"limit"},
	)

	// Emergency stop metrics
	emergencyStopActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "compliance_emergency_stop_active",
			Help: "Whether the emergency stop is currently active (1) or not (0)",
		},
	)

	emergencyStopsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "compliance_emergency_stops_total",
			Help: "Total number of emergency stop activations",
		},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(auditEventsTotal)
	prometheus.MustRegister(auditWriteFailuresTotal)
	prometheus.MustRegister(tradeValidationsTotal)
	prometheus.MustRegister(riskCheckFailuresTotal)
	prometheus.MustRegister(riskBreachesTotal)
	prometheus.MustRegister(emergencyStopActive)
	prometheus.MustRegister(emergencyStopsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordAuditEvent records a successful primary-store audit write
func RecordAuditEvent(eventType, severity string) {
	auditEventsTotal.WithLabelValues(eventType, severity).Inc()
}

// RecordAuditWriteFailure records a failed audit store write ("primary" or "secondary")
func RecordAuditWriteFailure(store string) {
	auditWriteFailuresTotal.WithLabelValues(store).Inc()
}

// RecordTradeValidation records a pre-trade validation verdict
func RecordTradeValidation(approved bool) {
	verdict := "rejected"
	if approved {
		verdict = "approved"
	}
	tradeValidationsTotal.WithLabelValues(verdict).Inc()
}

// RecordRiskCheckFailure records one failed pre-trade risk check
func RecordRiskCheckFailure(check string) {
	riskCheckFailuresTotal.WithLabelValues(check).Inc()
}

// RecordRiskBreach records a breached risk limit
func RecordRiskBreach(limit string) {
	riskBreachesTotal.WithLabelValues(limit).Inc()
}

// SetEmergencyStopActive updates the emergency stop gauge and, on
// activation, the activation counter
func SetEmergencyStopActive(active bool) {
	if active {
		emergencyStopActive.Set(1)
		emergencyStopsTotal.Inc()
	} else {
		emergencyStopActive.Set(0)
	}
}
