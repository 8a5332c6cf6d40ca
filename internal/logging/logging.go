// Package logging sets up a single rotate-by-truncate-on-start log file,
// using a plain log.Logger rather than a structured logging framework.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Open truncates (or creates) the log file at path and returns a Logger
// writing to it with standard date/time flags. If path cannot be created
// for writing, it falls back to appending, and if that also fails,
// returns an error.
func Open(path string) (*log.Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0755)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
	}
	return log.New(f, "", log.LstdFlags), nil
}

// DefaultPath returns a fixed per-app log path under os.UserConfigDir,
// or under the current directory if that is unavailable.
func DefaultPath(appName string) string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	return filepath.Join(base, appName, appName+".log")
}

// Startup logs a banner announcing the application has started.
func Startup(logger *log.Logger, appName, version, logPath string) {
	if logger == nil {
		return
	}
	logger.Printf("=== %s v%s Started ===", appName, version)
	logger.Printf("Log file location: %s", logPath)
}
