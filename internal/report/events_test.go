package report

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestEventLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewEventLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("failed to create event logger: %v", err)
	}

	if err := logger.LogCreate("collection", "upc:198001234567", "distrokid"); err != nil {
		t.Fatalf("failed to log create: %v", err)
	}
	if err := logger.LogMerge("track", "t1", "distrokid", "isrc", []string{"lyrics"}); err != nil {
		t.Fatalf("failed to log merge: %v", err)
	}
	if err := logger.LogSkip("track", "distrokid", "record carries no identity"); err != nil {
		t.Fatalf("failed to log skip: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	f, err := os.Open(logger.Path())
	if err != nil {
		t.Fatalf("failed to open event log: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		events = append(events, e)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Event != EventCreate || events[0].EntityID != "upc:198001234567" {
		t.Errorf("create event wrong: %+v", events[0])
	}
	if events[1].Event != EventMerge || len(events[1].Fields) != 1 {
		t.Errorf("merge event wrong: %+v", events[1])
	}
	if events[2].Event != EventSkip || events[2].Level != LevelWarning {
		t.Errorf("skip event wrong: %+v", events[2])
	}
	for _, e := range events {
		if e.Timestamp.IsZero() {
			t.Error("expected timestamps to be filled in")
		}
	}
}

func TestEventLoggerLevelFilter(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewEventLogger(dir, LevelWarning)
	if err != nil {
		t.Fatalf("failed to create event logger: %v", err)
	}

	// Info-level merge with no changed fields is debug; both below warning
	logger.LogCreate("track", "t1", "src")
	logger.LogMerge("track", "t1", "src", "isrc", nil)
	logger.LogConflict("track", "t1", "src", "claimed twice in one batch")
	logger.Close()

	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("failed to read event log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the conflict event, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], string(EventConflict)) {
		t.Errorf("expected conflict event, got %s", lines[0])
	}
}

func TestNullLoggerIsSafe(t *testing.T) {
	var l *EventLogger
	if err := l.LogCreate("track", "t1", "src"); err != nil {
		t.Errorf("nil logger should be a no-op, got %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil logger close should be a no-op, got %v", err)
	}
	if l.Path() != "" {
		t.Error("nil logger path should be empty")
	}
}
