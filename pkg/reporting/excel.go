package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/quantdesk/portfolio-compliance/internal/audit"
)

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	BaseStyle     int
	CriticalStyle int
	WarningStyle  int
}

// DefaultExcelReporter implements Excel export of the audit trail
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteTrailXLSX writes the records to an Excel workbook with a trail
// sheet and a summary sheet
func (r *DefaultExcelReporter) WriteTrailXLSX(records []audit.Record, path string) error {
	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return err
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const trailSheet = "Audit Trail"
	const summarySheet = "Summary"

	fx.SetSheetName(fx.GetSheetName(0), trailSheet)
	fx.NewSheet(summarySheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeTrailSheet(fx, trailSheet, records, styles); err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, records, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

// createExcelStyles creates the workbook styles
func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	// Header style - dark background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10, Family: "Calibri"},
	})
	if err != nil {
		return styles, err
	}

	// Critical rows stand out in red
	styles.CriticalStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10, Family: "Calibri", Color: "9C0006", Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFC7CE"},
			Pattern: 1,
		},
	})
	if err != nil {
		return styles, err
	}

	styles.WarningStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10, Family: "Calibri", Color: "9C6500"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFEB9C"},
			Pattern: 1,
		},
	})
	return styles, err
}

func (r *DefaultExcelReporter) writeTrailSheet(fx *excelize.File, sheet string, records []audit.Record, styles ExcelStyles) error {
	headers := []interface{}{
		"ID", "Timestamp", "Event Type", "Entity Type", "Entity ID",
		"User", "Action", "Before State", "After State", "Metadata",
		"Severity", "Checksum", "Checksum Valid",
	}
	if err := fx.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "M1", styles.HeaderStyle); err != nil {
		return err
	}

	for i := range records {
		rec := &records[i]
		row := i + 2
		values := []interface{}{
			rec.ID,
			rec.EventTimestamp.Format("2006-01-02 15:04:05.000"),
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
			rec.VerifyChecksum(),
		}
		cell := fmt.Sprintf("A%d", row)
		if err := fx.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}

		rowStyle := styles.BaseStyle
		switch rec.Severity {
		case audit.SeverityCritical:
			rowStyle = styles.CriticalStyle
		case audit.SeverityWarning:
			rowStyle = styles.WarningStyle
		}
		if err := fx.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("M%d", row), rowStyle); err != nil {
			return err
		}
	}

	// Widen the action and state columns for readability
	fx.SetColWidth(sheet, "B", "B", 22)
	fx.SetColWidth(sheet, "G", "G", 48)
	fx.SetColWidth(sheet, "H", "J", 32)
	fx.SetColWidth(sheet, "L", "L", 36)

	return nil
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, records []audit.Record, styles ExcelStyles) error {
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

	headers := []interface{}{"Metric", "Count"}
	if err := fx.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "B1", styles.HeaderStyle); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Total Records", len(records)},
		{"Critical", bySeverity[audit.SeverityCritical]},
		{"Warning", bySeverity[audit.SeverityWarning]},
		{"Info", bySeverity[audit.SeverityInfo]},
		{"Failed Checksums", badChecksums},
	}
	for eventType, count := range byType {
		rows = append(rows, []interface{}{"Events: " + string(eventType), count})
	}

	for i, values := range rows {
		v := values
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &v); err != nil {
			return err
		}
	}

	fx.SetColWidth(sheet, "A", "A", 32)

	return nil
}
