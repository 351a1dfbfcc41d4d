package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantdesk/portfolio-compliance/internal/audit"
)

// DefaultConsoleReporter renders the audit trail as terminal tables
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// RenderTrail prints the records as a table, one row per record
func (r *DefaultConsoleReporter) RenderTrail(records []audit.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("AUDIT TRAIL")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Timestamp", "Type", "Severity", "Entity", "User", "Action", "Checksum"})

	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.EventTimestamp.Format("2006-01-02 15:04:05"),
			rec.EventType,
			severityLabel(rec.Severity),
			fmt.Sprintf("%s/%s", rec.EntityType, rec.EntityID),
			rec.User,
			rec.Action,
			shortChecksum(rec.Checksum),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, WidthMax: 48, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// RenderSummary prints per-type and per-severity counts plus integrity
// verification results for the supplied records
func (r *DefaultConsoleReporter) RenderSummary(records []audit.Record) {
	byType := make(map[audit.EventType]int)
	bySeverity := make(map[audit.Severity]int)
	badChecksums := 0
	for i := range records {
		byType[records[i].EventType]++
		bySeverity[records[i].Severity]++
		if !records[i].VerifyChecksum() {
			badChecksums++
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("TRAIL SUMMARY")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📋 Total Records", len(records)},
		{"🚨 Critical", bySeverity[audit.SeverityCritical]},
		{"⚠️ Warning", bySeverity[audit.SeverityWarning]},
		{"ℹ️ Info", bySeverity[audit.SeverityInfo]},
	})

	t.AppendSeparator()
	for eventType, count := range byType {
		t.AppendRow(table.Row{string(eventType), count})
	}

	t.AppendSeparator()
	integrity := "✅ all checksums verified"
	if badChecksums > 0 {
		integrity = fmt.Sprintf("❌ %d records failed checksum verification", badChecksums)
	}
	t.AppendRow(table.Row{"🔏 Integrity", integrity})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 24, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

func shortChecksum(checksum string) string {
	if len(checksum) < 12 {
		return checksum
	}
	return checksum[:12] + "…"
}

func severityLabel(severity audit.Severity) string {
	switch severity {
	case audit.SeverityCritical:
		return "🚨 CRITICAL"
	case audit.SeverityWarning:
		return "⚠️ WARNING"
	default:
		return string(severity)
	}
}
