package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/quantdesk/portfolio-compliance/internal/audit"
	"github.com/quantdesk/portfolio-compliance/internal/config"
	"github.com/quantdesk/portfolio-compliance/pkg/reporting"
)

// audit-trail is the operational review tool for the compliance audit
// log: it scans the primary append-only store, applies filters, verifies
// checksums and renders or exports the result.
func main() {
	var (
		logDir    = flag.String("log-dir", "", "Audit log directory (defaults to AUDIT_LOG_DIR)")
		eventType = flag.String("type", "", "Filter by event type (e.g. RISK_BREACH, EMERGENCY_STOP)")
		entityID  = flag.String("entity", "", "Filter by entity id (e.g. portfolio, USDBRL-001)")
		severity  = flag.String("severity", "", "Filter by severity (INFO, WARNING, CRITICAL)")
		since     = flag.String("since", "", "Inclusive lower time bound (RFC3339)")
		until     = flag.String("until", "", "Inclusive upper time bound (RFC3339)")
		limit     = flag.Int("limit", audit.DefaultTrailLimit, "Maximum records to return (most recent first)")
		format    = flag.String("format", "table", "Output format: table, csv, json, xlsx")
		output    = flag.String("output", "", "Output file path (csv/json/xlsx formats)")
		summary   = flag.Bool("summary", false, "Print a per-type/per-severity summary table")
		envFile   = flag.String("env", ".env", "Environment file path")
	)

	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: Could not load %s (%v), using environment variables...", *envFile, err)
	}

	cfg := config.Load()
	if *logDir == "" {
		*logDir = cfg.Audit.LogDir
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	auditLogger, err := audit.NewLogger(*logDir, zapLogger, nil)
	if err != nil {
		log.Fatalf("Failed to open audit trail: %v", err)
	}

	filter := audit.TrailFilter{
		EventType: audit.EventType(*eventType),
		EntityID:  *entityID,
		Severity:  audit.Severity(*severity),
		Limit:     *limit,
	}
	if *since != "" {
		filter.StartTime = parseTimeFlag("since", *since)
	}
	if *until != "" {
		filter.EndTime = parseTimeFlag("until", *until)
	}

	records, err := auditLogger.GetAuditTrail(filter)
	if err != nil {
		log.Fatalf("Failed to read audit trail: %v", err)
	}

	if len(records) == 0 {
		fmt.Println("No audit records match the given filters.")
		return
	}

	outputPath := *output
	if outputPath == "" && *format != "table" {
		pathMgr := reporting.NewDefaultPathManager()
		outputPath = filepath.Join(pathMgr.DefaultOutputDir(), "audit_trail."+*format)
	}

	switch *format {
	case "table":
		console := reporting.NewDefaultConsoleReporter()
		console.RenderTrail(records)
		if *summary {
			console.RenderSummary(records)
		}
	case "csv":
		if err := reporting.NewDefaultCSVReporter().WriteTrailCSV(records, outputPath); err != nil {
			log.Fatalf("Failed to write CSV export: %v", err)
		}
		fmt.Printf("Exported %d records to %s\n", len(records), outputPath)
	case "json":
		if err := reporting.NewDefaultJSONReporter().WriteTrailJSON(records, outputPath); err != nil {
			log.Fatalf("Failed to write JSON export: %v", err)
		}
		fmt.Printf("Exported %d records to %s\n", len(records), outputPath)
	case "xlsx":
		if err := reporting.NewDefaultExcelReporter().WriteTrailXLSX(records, outputPath); err != nil {
			log.Fatalf("Failed to write Excel export: %v", err)
		}
		fmt.Printf("Exported %d records to %s\n", len(records), outputPath)
	default:
		fmt.Fprintf(os.Stderr, "Unknown format %q (want table, csv, json or xlsx)\n", *format)
		os.Exit(2)
	}
}

func parseTimeFlag(name, value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Fatalf("Invalid -%s value %q: %v", name, value, err)
	}
	return t
}
