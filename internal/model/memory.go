// Package model defines the core memory data types.
package model

import "time"

// Scope partitions the store: global is user-wide, project is
// repository-local. Each scope owns an independent index and session set.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

// MemoryType classifies a memory entry.
type MemoryType string

const (
	TypeSession        MemoryType = "session"
	TypeDecision       MemoryType = "decision"
	TypeImplementation MemoryType = "implementation"
	TypePattern        MemoryType = "pattern"
)

// ValidTypes are the allowed memory types.
var ValidTypes = map[MemoryType]bool{
	TypeSession:        true,
	TypeDecision:       true,
	TypeImplementation: true,
	TypePattern:        true,
}

// ValidScopes are the allowed scopes.
var ValidScopes = map[Scope]bool{
	ScopeGlobal:  true,
	ScopeProject: true,
}

// MaxRecentSearches bounds the per-entry search ring buffer.
const MaxRecentSearches = 10

// SearchRecord is one remembered lookup against an entry.
type SearchRecord struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// AccessInfo tracks how often and how recently an entry was read.
type AccessInfo struct {
	Count          int            `json:"count"`
	FirstAccessed  *time.Time     `json:"first_accessed,omitempty"`
	LastAccessed   *time.Time     `json:"last_accessed,omitempty"`
	RecentSearches []SearchRecord `json:"recent_searches,omitempty"`
}

// Record notes one access at the given time. Count never decreases.
func (a *AccessInfo) Record(now time.Time, query string) {
	if a.FirstAccessed == nil {
		t := now
		a.FirstAccessed = &t
	}
	t := now
	a.LastAccessed = &t
	a.Count++

	if query != "" {
		a.RecentSearches = append(a.RecentSearches, SearchRecord{Query: query, Timestamp: now})
		if n := len(a.RecentSearches); n > MaxRecentSearches {
			a.RecentSearches = a.RecentSearches[n-MaxRecentSearches:]
		}
	}
}

// PromotionInfo marks an entry promoted to short-term visibility.
type PromotionInfo struct {
	IsPromoted       bool       `json:"is_promoted"`
	PromotedAt       *time.Time `json:"promoted_at,omitempty"`
	ShortDescription string     `json:"short_description,omitempty"`
}

// ScopeDecision records how the entry's scope was chosen. The index does
// not interpret it; analysis passes own it.
type ScopeDecision struct {
	Automatic        bool     `json:"automatic"`
	UserSpecified    bool     `json:"user_specified"`
	Reasoning        string   `json:"reasoning,omitempty"`
	Generalizability float64  `json:"generalizability"`
	Blockers         []string `json:"blockers,omitempty"`
}

// SkillCandidate flags an entry as raw material for skill extraction.
type SkillCandidate struct {
	Flagged         bool     `json:"flagged"`
	CandidateName   string   `json:"candidate_name,omitempty"`
	Confidence      string   `json:"confidence,omitempty"` // high, medium, low
	RelatedMemories []string `json:"related_memories,omitempty"`
}

// MemoryEntry is a single record in the index. It is immutable by
// convention: mutations replace the whole value, never patch fields in
// the persisted form. Created is fixed once the entry is first added.
type MemoryEntry struct {
	ID            string         `json:"id"`
	Type          MemoryType     `json:"type"`
	Scope         Scope          `json:"scope"`
	File          string         `json:"file"` // markdown blob, relative to the scope's memory dir
	Title         string         `json:"title"`
	Created       time.Time      `json:"created"`
	Updated       time.Time      `json:"updated"`
	Tags          []string       `json:"tags,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	Keywords      []string       `json:"keywords,omitempty"`
	Triggers      []string       `json:"triggers,omitempty"`
	RelatedFiles  []string       `json:"related_files,omitempty"`
	FilesModified []string       `json:"files_modified,omitempty"`
	Decisions     []string       `json:"decisions,omitempty"`
	Promoted      PromotionInfo  `json:"promoted"`
	Access        AccessInfo     `json:"access"`
	ScopeChoice   ScopeDecision  `json:"scope_decision"`
	Skill         SkillCandidate `json:"skill_candidate"`
}
