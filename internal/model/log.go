package model

import "time"

// Operation is the kind of change a log entry records.
type Operation string

const (
	OpAdd    Operation = "add"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// LogEntry is one durable record of a single index operation, stored as
// its own file pending compaction. Never mutated after being written; its
// lifecycle ends when compaction clears the log directory.
type LogEntry struct {
	Operation Operation    `json:"operation"`
	Timestamp time.Time    `json:"timestamp"`
	SessionID string       `json:"session_id"`
	Memory    *MemoryEntry `json:"memory,omitempty"`    // add, update
	MemoryID  string       `json:"memory_id,omitempty"` // update, delete
}
