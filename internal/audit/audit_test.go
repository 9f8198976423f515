package audit

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLogAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	entry := &Entry{Tool: "execute_procedure", Parameters: `{"@id": 1}`, DurationMs: 12}
	if err := l.Log(context.Background(), entry); err != nil {
		t.Fatalf("log: %v", err)
	}
	if entry.EntryID == "" || entry.Timestamp == 0 {
		t.Errorf("defaults not filled: %+v", entry)
	}
	if entry.Status != "success" {
		t.Errorf("status: got %q, want success", entry.Status)
	}

	failed := &Entry{Tool: "execute_procedure", Error: "boom"}
	if err := l.Log(context.Background(), failed); err != nil {
		t.Fatalf("log: %v", err)
	}
	if failed.Status != "error" {
		t.Errorf("status: got %q, want error", failed.Status)
	}

	var count int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM invocation_log`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("rows: got %d, want 2", count)
	}
}
