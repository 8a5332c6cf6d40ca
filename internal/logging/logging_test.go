package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenCreatesAndTruncatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "focusmute.log")

	logger, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	logger.Printf("first line")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "first line") {
		t.Errorf("log file missing written content: %q", data)
	}

	logger2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	logger2.Printf("second line")

	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile after reopen: %v", err)
	}
	if strings.Contains(string(data), "first line") {
		t.Error("expected reopening to truncate the previous contents")
	}
	if !strings.Contains(string(data), "second line") {
		t.Error("expected the new content after truncation")
	}
}

func TestDefaultPathIncludesAppName(t *testing.T) {
	path := DefaultPath("focusmute")
	if !strings.Contains(path, "focusmute") {
		t.Errorf("DefaultPath = %q, expected it to contain the app name", path)
	}
	if filepath.Base(path) != "focusmute.log" {
		t.Errorf("DefaultPath base = %q, want focusmute.log", filepath.Base(path))
	}
}

func TestStartupHandlesNilLogger(t *testing.T) {
	Startup(nil, "focusmute", "1.0.0", "/tmp/focusmute.log")
}
