package reporting

import (
	"encoding/json"
	"os"

	"github.com/quantdesk/portfolio-compliance/internal/audit"
)

// DefaultJSONReporter implements JSON export of the audit trail
type DefaultJSONReporter struct{}

// NewDefaultJSONReporter creates a new JSON reporter
func NewDefaultJSONReporter() *DefaultJSONReporter {
	return &DefaultJSONReporter{}
}

// WriteTrailJSON writes the records to an indented JSON file
func (r *DefaultJSONReporter) WriteTrailJSON(records []audit.Record, path string) error {
	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FormatTrail returns the records as indented JSON bytes
func (r *DefaultJSONReporter) FormatTrail(records []audit.Record) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}
