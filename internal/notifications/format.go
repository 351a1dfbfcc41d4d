package notifications

import "fmt"

// FormatStopAlert renders the emergency stop activation message sent to
// the desk and to risk management.
func FormatStopAlert(reason, confirmedBy string, positionsFlagged int) string {
	return fmt.Sprintf(
		"EMERGENCY STOP ACTIVE\nReason: %s\nConfirmed by: %s\nPositions flagged for manual close: %d\nTrade proposal generation is frozen until a confirmed reset.",
		reason, confirmedBy, positionsFlagged)
}

// FormatResetAlert renders the emergency stop reset message
func FormatResetAlert(confirmedBy string) string {
	return fmt.Sprintf(
		"Emergency stop reset by %s. Trade proposal generation restored. Position flags remain until reviewed.",
		confirmedBy)
}

// FormatBreachAlert renders a risk limit breach message with the limit
// utilization already computed by the audit layer.
func FormatBreachAlert(limitName string, currentValue, limitValue, utilizationPct float64) string {
	return fmt.Sprintf(
		"RISK LIMIT BREACH: %s\nCurrent: %.4f  Limit: %.4f  Utilization: %.1f%%",
		limitName, currentValue, limitValue, utilizationPct)
}
