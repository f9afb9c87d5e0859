package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_WritesJSONToRotatingFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := New("debug", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("probe_checked")
	_ = log.Sync()

	b, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	line := strings.TrimSpace(strings.Split(string(b), "\n")[0])
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("not JSON: %q", line)
	}
	if entry["msg"] != "probe_checked" || entry["ts"] == nil {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNew_LevelFilteringAndErrors(t *testing.T) {
	dir := t.TempDir()
	log, err := New("warn", dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.Core().Enabled(-1) || !log.Core().Enabled(1) {
		t.Fatalf("warn level not applied")
	}
	if _, err := New("loud", dir); err == nil {
		t.Fatalf("expected error for bad level")
	}
	if _, err := New("", ""); err != nil {
		t.Fatalf("stderr logger: %v", err)
	}
}
