package reporting

import (
	"github.com/quantdesk/portfolio-compliance/internal/audit"
)

// Package reporting provides export and rendering of the audit trail for
// compliance review.

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	RenderTrail(records []audit.Record)
	RenderSummary(records []audit.Record)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteTrailCSV(records []audit.Record, path string) error
	WriteTrailXLSX(records []audit.Record, path string) error
	WriteTrailJSON(records []audit.Record, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	DefaultOutputDir() string
	EnsureDirectoryExists(path string) error
}

// Reporter combines all reporting interfaces
type Reporter interface {
	ConsoleReporter
	FileReporter
	PathManager
}
