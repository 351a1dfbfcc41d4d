package notifications

// Notifier defines the interface for compliance alert delivery.
// Delivery is strictly best-effort: callers log failures and continue,
// so implementations must never be relied on for correctness.
type Notifier interface {
	// SendAlert sends an alert with the specified level and message
	SendAlert(level, message string) error
}
