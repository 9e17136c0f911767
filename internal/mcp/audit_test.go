package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readAuditEntries(t *testing.T, path string) []AuditEntry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening audit log: %v", err)
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("parsing audit entry %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning audit log: %v", err)
	}
	return entries
}

func TestAuditLogger_NilSafety(t *testing.T) {
	var logger *AuditLogger
	logger.Log(AuditEntry{Tool: "test"})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nil logger returned error: %v", err)
	}
	if logger.Path() != "" {
		t.Errorf("Path() on nil logger = %q, want empty", logger.Path())
	}
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	now := time.Now()
	logger.Log(AuditEntry{
		Timestamp:  now,
		Tool:       "nvote_generate",
		DurationMs: 42,
		Status:     "success",
		Params:     map[string]string{"module": "sorting"},
	})
	logger.Log(AuditEntry{Tool: "nvote_vote", Status: "error", Error: "boom"})

	entries := readAuditEntries(t, filepath.Join(dir, AuditFileName))
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Tool != "nvote_generate" || entries[0].DurationMs != 42 || entries[0].Status != "success" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[0].Params["module"] != "sorting" {
		t.Errorf("params[module] = %q, want sorting", entries[0].Params["module"])
	}
	if entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestAuditLogger_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	info, err := os.Stat(filepath.Join(dir, AuditFileName))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}
}

func TestAuditLogger_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	const goroutines = 10
	const entriesPerGoroutine = 5

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < entriesPerGoroutine; i++ {
				logger.Log(AuditEntry{Tool: "nvote_vote", Status: "success"})
			}
		}()
	}
	wg.Wait()

	entries := readAuditEntries(t, filepath.Join(dir, AuditFileName))
	if len(entries) != goroutines*entriesPerGoroutine {
		t.Errorf("got %d entries, want %d", len(entries), goroutines*entriesPerGoroutine)
	}
}

func TestAuditLogger_NonFatalOnBadPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if logger := NewAuditLogger(filepath.Join(blocker, "sub")); logger != nil {
		t.Error("expected nil logger when the directory cannot be created")
	}
}

func TestSanitizeToolParams(t *testing.T) {
	t.Run("safe values are included", func(t *testing.T) {
		result := sanitizeToolParams(map[string]any{
			"module":     "sorting",
			"iterations": 100,
			"save":       true,
			"algorithms": []string{"median", "average"},
		})
		want := map[string]string{
			"module":       "sorting",
			"iterations":   "100",
			"save":         "true",
			"algorithms":   `["average","median"]`,
			"_param_count": "4",
		}
		for k, v := range want {
			if result[k] != v {
				t.Errorf("%s = %q, want %q", k, result[k], v)
			}
		}
	})

	t.Run("presence-only values are redacted", func(t *testing.T) {
		result := sanitizeToolParams(map[string]any{"seed": uint64(42), "scenario": true})
		if result["seed"] != "(set)" {
			t.Errorf("seed = %q, want (set)", result["seed"])
		}
		if result["scenario"] != "(set)" {
			t.Errorf("scenario = %q, want (set)", result["scenario"])
		}
	})

	t.Run("unknown params are excluded", func(t *testing.T) {
		result := sanitizeToolParams(map[string]any{"password": "hunter2"})
		if _, ok := result["password"]; ok {
			t.Error("unknown param should not be included")
		}
		if result["_param_count"] != "1" {
			t.Errorf("_param_count = %q, want 1", result["_param_count"])
		}
	})

	t.Run("nil params returns nil", func(t *testing.T) {
		if result := sanitizeToolParams(nil); result != nil {
			t.Errorf("expected nil, got %v", result)
		}
	})
}

func TestAuditTool_Integration(t *testing.T) {
	server, dir := setupTestServer(t)

	start := time.Now()
	time.Sleep(1 * time.Millisecond) // ensure non-zero duration
	server.auditTool("nvote_test", start, nil, map[string]string{"module": "sorting"})
	server.auditTool("nvote_test", start, errors.New("failed"), nil)

	entries := readAuditEntries(t, filepath.Join(dir, AuditFileName))
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Status != "success" || entries[0].DurationMs < 1 {
		t.Errorf("success entry = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error != "failed" {
		t.Errorf("error entry = %+v", entries[1])
	}
}
