package model

import (
	"sort"
	"strings"
	"time"
)

// IndexVersion is the on-disk schema version of the snapshot file.
const IndexVersion = "1.0"

// IndexStats is the derived statistics block recomputed at each rebuild.
type IndexStats struct {
	TotalMemories    int            `json:"total_memories"`
	TotalAccesses    int            `json:"total_accesses"`
	ByType           map[string]int `json:"by_type"`
	MostAccessed     []string       `json:"most_accessed"`
	NeverAccessed    []string       `json:"never_accessed"`
	OldestUnaccessed string         `json:"oldest_unaccessed,omitempty"`
}

// Index is the materialized snapshot of a scope's memory entries.
// Memories is keyed by entry id; ids are unique within a scope. Callers
// must not rely on any iteration order and sort explicitly when order
// matters.
type Index struct {
	Version     string                 `json:"version"`
	Scope       Scope                  `json:"scope"`
	LastUpdated time.Time              `json:"last_updated"`
	Checksum    string                 `json:"checksum,omitempty"`
	Memories    map[string]MemoryEntry `json:"memories"`
	Stats       IndexStats             `json:"stats"`
}

// NewIndex returns an empty index for the given scope.
func NewIndex(scope Scope) *Index {
	return &Index{
		Version:     IndexVersion,
		Scope:       scope,
		LastUpdated: time.Now(),
		Memories:    map[string]MemoryEntry{},
	}
}

// FindByID returns the entry with the given id, if present.
func (ix *Index) FindByID(id string) (MemoryEntry, bool) {
	m, ok := ix.Memories[id]
	return m, ok
}

// Entries returns the index's memories sorted by creation time ascending.
func (ix *Index) Entries() []MemoryEntry {
	out := make([]MemoryEntry, 0, len(ix.Memories))
	for _, m := range ix.Memories {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// SearchParams holds filters for searching an index.
type SearchParams struct {
	Query string
	Tags  []string
	Type  MemoryType
}

// Search scans the index for entries matching the query (case-insensitive
// substring over title, summary, keywords and triggers), any of the given
// tags, and the type filter. Results come back most recently accessed
// first, then most recently created.
func (ix *Index) Search(p SearchParams) []MemoryEntry {
	query := strings.ToLower(p.Query)

	var results []MemoryEntry
	for _, entry := range ix.Memories {
		if query != "" && !matchesQuery(entry, query) {
			continue
		}
		if len(p.Tags) > 0 && !matchesAnyTag(entry.Tags, p.Tags) {
			continue
		}
		if p.Type != "" && entry.Type != p.Type {
			continue
		}
		results = append(results, entry)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := accessTime(results[i]), accessTime(results[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return results[i].Created.After(results[j].Created)
	})

	return results
}

func matchesQuery(entry MemoryEntry, query string) bool {
	if strings.Contains(strings.ToLower(entry.Title), query) ||
		strings.Contains(strings.ToLower(entry.Summary), query) {
		return true
	}
	for _, kw := range entry.Keywords {
		if strings.Contains(strings.ToLower(kw), query) {
			return true
		}
	}
	for _, tr := range entry.Triggers {
		if strings.Contains(strings.ToLower(tr), query) {
			return true
		}
	}
	return false
}

func matchesAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func accessTime(m MemoryEntry) time.Time {
	if m.Access.LastAccessed != nil {
		return *m.Access.LastAccessed
	}
	return time.Time{}
}
