package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/quantdesk/portfolio-compliance/internal/audit"
)

// DefaultCSVReporter implements CSV export of the audit trail
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteTrailCSV writes the records to a CSV file, one row per record,
// with the structured snapshots flattened into JSON cells
func (r *DefaultCSVReporter) WriteTrailCSV(records []audit.Record, path string) error {
	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"ID",
		"Event_Timestamp",
		"Event_Type",
		"Entity_Type",
		"Entity_ID",
		"User",
		"Action",
		"Before_State",
		"After_State",
		"Metadata",
		"Severity",
		"Checksum",
		"Checksum_Valid",
	}); err != nil {
		return err
	}

	for i := range records {
		rec := &records[i]
		row := []string{
			rec.ID,
			rec.EventTimestamp.Format(time.RFC3339Nano),
			string(rec.EventType),
			rec.EntityType,
			rec.EntityID,
			rec.User,
			rec.Action,
			jsonCell(rec.BeforeState),
			jsonCell(rec.AfterState),
			jsonCell(rec.Metadata),
			string(rec.Severity),
			rec.Checksum,
			strconv.FormatBool(rec.VerifyChecksum()),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write audit record row: %w", err)
		}
	}

	return nil
}

func jsonCell(state map[string]interface{}) string {
	if state == nil {
		return ""
	}
	data, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	return string(data)
}
