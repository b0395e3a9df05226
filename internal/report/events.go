package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventImport    EventType = "import"
	EventCreate    EventType = "create"
	EventMerge     EventType = "merge"
	EventSkip      EventType = "skip"
	EventAmbiguous EventType = "ambiguous"
	EventConflict  EventType = "conflict"
	EventTieBreak  EventType = "tiebreak"
	EventEnrich    EventType = "enrich"
	EventError     EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in a run
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	EntityID  string            `json:"entity_id,omitempty"`
	Kind      string            `json:"kind,omitempty"` // collection | track
	Source    string            `json:"source,omitempty"`
	Strategy  string            `json:"strategy,omitempty"`
	Fields    []string          `json:"fields,omitempty"` // field names changed by a merge
	Reason    string            `json:"reason,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Generate filename with timestamp
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	// Open file for writing
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	// Filter by minimum level
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogCreate logs creation of a new entity
func (l *EventLogger) LogCreate(kind, entityID, source string) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventCreate,
		Kind:     kind,
		EntityID: entityID,
		Source:   source,
	})
}

// LogMerge logs a merge into an existing entity
func (l *EventLogger) LogMerge(kind, entityID, source, strategy string, fields []string) error {
	level := LevelDebug
	if len(fields) > 0 {
		level = LevelInfo
	}
	return l.Log(&Event{
		Level:    level,
		Event:    EventMerge,
		Kind:     kind,
		EntityID: entityID,
		Source:   source,
		Strategy: strategy,
		Fields:   fields,
	})
}

// LogSkip logs a record that was not applied
func (l *EventLogger) LogSkip(kind, source, reason string) error {
	return l.Log(&Event{
		Level:  LevelWarning,
		Event:  EventSkip,
		Kind:   kind,
		Source: source,
		Reason: reason,
	})
}

// LogAmbiguous logs an enrichment withheld behind an ambiguous title key
func (l *EventLogger) LogAmbiguous(kind, titleKey string, candidates int) error {
	return l.Log(&Event{
		Level:  LevelWarning,
		Event:  EventAmbiguous,
		Kind:   kind,
		Reason: fmt.Sprintf("title key %q shared by %d entities", titleKey, candidates),
	})
}

// LogConflict logs a conflicting identity claim within one batch
func (l *EventLogger) LogConflict(kind, entityID, source, reason string) error {
	return l.Log(&Event{
		Level:    LevelWarning,
		Event:    EventConflict,
		Kind:     kind,
		EntityID: entityID,
		Source:   source,
		Reason:   reason,
	})
}

// LogTieBreak logs a resolution that needed a tie-break between candidates
func (l *EventLogger) LogTieBreak(kind, entityID, strategy, note string) error {
	return l.Log(&Event{
		Level:    LevelWarning,
		Event:    EventTieBreak,
		Kind:     kind,
		EntityID: entityID,
		Strategy: strategy,
		Reason:   note,
	})
}

// LogEnrich logs an enrichment attempt on an entity
func (l *EventLogger) LogEnrich(kind, entityID, source string, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}
	return l.Log(&Event{
		Level:    level,
		Event:    EventEnrich,
		Kind:     kind,
		EntityID: entityID,
		Source:   source,
		Error:    errMsg,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, entityID string, err error) error {
	return l.Log(&Event{
		Level:    LevelError,
		Event:    event,
		EntityID: entityID,
		Error:    err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
