package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultPathManager implements output path management
type DefaultPathManager struct{}

// NewDefaultPathManager creates a new path manager
func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{}
}

// DefaultOutputDir returns the default export directory, dated so
// successive compliance exports never overwrite each other
func (p *DefaultPathManager) DefaultOutputDir() string {
	return filepath.Join("reports", fmt.Sprintf("audit_%s", time.Now().Format("2006-01-02")))
}

// EnsureDirectoryExists creates the parent directory if it doesn't exist
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
