package result

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileTimeLayout is the timestamp format used in saved report file names.
const FileTimeLayout = "2006-01-02_15-04-05"

// SaveCSV writes the report to <dir>/<mode>_<timestamp>.csv, creating dir if
// needed, and returns the path written.
func SaveCSV(dir string, report *Report, now time.Time) (path string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir %s: %w", dir, err)
	}

	path = filepath.Join(dir, fmt.Sprintf("%s_%s.csv", report.Mode, now.Format(FileTimeLayout)))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create results file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close results file: %w", closeErr)
		}
	}()

	if err := WriteCSV(f, report); err != nil {
		return "", err
	}
	return path, nil
}
