package model

import "time"

// SessionStatus is the lifecycle state of a tracked work session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusArchived  SessionStatus = "archived"
	StatusDiscarded SessionStatus = "discarded"
)

// SessionDecision is one decision captured during a session.
type SessionDecision struct {
	Decision     string    `json:"decision"`
	Rationale    string    `json:"rationale"`
	Alternatives []string  `json:"alternatives,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// SessionProblem is one problem encountered during a session, with its
// solution if one was found.
type SessionProblem struct {
	Problem   string    `json:"problem"`
	Solution  string    `json:"solution,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionData is the full record of an in-progress work session. It lives
// in a single JSON file and is always persisted whole.
type SessionData struct {
	SessionID     string            `json:"session_id"`
	Started       time.Time         `json:"started"`
	LastUpdated   time.Time         `json:"last_updated"`
	Task          string            `json:"task,omitempty"`
	Status        SessionStatus     `json:"status"`
	FilesModified []string          `json:"files_modified,omitempty"`
	Decisions     []SessionDecision `json:"decisions,omitempty"`
	Problems      []SessionProblem  `json:"problems,omitempty"`
	Notes         []string          `json:"notes,omitempty"`
	Todos         []string          `json:"todos,omitempty"`
}

// Stale reports whether the session has seen no activity for at least
// hoursThreshold hours. Pure function over already-loaded data.
func (s *SessionData) Stale(now time.Time, hoursThreshold int) bool {
	return now.Sub(s.LastUpdated) >= time.Duration(hoursThreshold)*time.Hour
}
