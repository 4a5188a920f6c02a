// Package manifest derives a lightweight, regenerable projection of a
// scope's index for cheap existence and metadata queries. The manifest is
// a cache, never a source of truth: it tolerates being stale or absent
// and can be rebuilt from the index and content blobs at any time.
package manifest

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devkeep/devkeep/internal/fsjson"
	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/workspace"
)

// Version is the manifest schema version.
const Version = "1.0"

const summaryLimit = 200

// Entry is the flattened, summary-only view of one memory.
type Entry struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Type         string     `json:"type"`
	Scope        string     `json:"scope"`
	Created      time.Time  `json:"created"`
	Tags         []string   `json:"tags,omitempty"`
	File         string     `json:"file"`
	SizeTokens   int        `json:"size_tokens"`
	AccessCount  int        `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	Summary      string     `json:"summary,omitempty"`
}

// Stats aggregates the manifest.
type Stats struct {
	TotalMemories int            `json:"total_memories"`
	TotalTokens   int            `json:"total_tokens"`
	ByType        map[string]int `json:"by_type"`
}

// Manifest is the persisted projection.
type Manifest struct {
	Version     string    `json:"version"`
	Scope       string    `json:"scope"`
	LastUpdated time.Time `json:"last_updated"`
	Index       []Entry   `json:"index"`
	Stats       Stats     `json:"stats"`
}

// Generator builds and queries the manifest for one scope.
type Generator struct {
	dir workspace.Dir
}

// NewGenerator returns a generator for the given scope root.
func NewGenerator(dir workspace.Dir) *Generator {
	return &Generator{dir: dir}
}

// Generate computes a manifest from a merged index. The size estimate is
// content length divided by four, a rough token approximation; a missing
// content blob counts as zero.
func (g *Generator) Generate(ix *model.Index) *Manifest {
	m := &Manifest{
		Version:     Version,
		Scope:       string(ix.Scope),
		LastUpdated: time.Now(),
		Index:       []Entry{},
		Stats:       Stats{ByType: map[string]int{}},
	}

	for _, mem := range ix.Entries() {
		summary := mem.Summary
		if len(summary) > summaryLimit {
			summary = summary[:summaryLimit]
		}

		e := Entry{
			ID:           mem.ID,
			Title:        mem.Title,
			Type:         string(mem.Type),
			Scope:        string(mem.Scope),
			Created:      mem.Created,
			Tags:         mem.Tags,
			File:         mem.File,
			SizeTokens:   g.estimateTokens(mem.File),
			AccessCount:  mem.Access.Count,
			LastAccessed: mem.Access.LastAccessed,
			Summary:      summary,
		}
		m.Index = append(m.Index, e)
		m.Stats.TotalMemories++
		m.Stats.TotalTokens += e.SizeTokens
		m.Stats.ByType[e.Type]++
	}

	return m
}

// Rebuild regenerates the manifest from the index and persists it.
func (g *Generator) Rebuild(ix *model.Index) error {
	return fsjson.Write(g.dir.ManifestPath(), g.Generate(ix))
}

// Load returns the persisted manifest, or nil when it is absent or
// unreadable. Callers fall back to the index; a broken cache never
// surfaces as an error.
func (g *Generator) Load() *Manifest {
	var m Manifest
	found, err := fsjson.Read(g.dir.ManifestPath(), &m)
	if err != nil {
		slog.Warn("manifest: unreadable, ignoring", "path", g.dir.ManifestPath(), "err", err)
		return nil
	}
	if !found {
		return nil
	}
	return &m
}

// Info returns one entry's metadata without touching the index or the
// content blob. Returns false when the manifest is absent or the id is
// unknown.
func (g *Generator) Info(memoryID string) (Entry, bool) {
	m := g.Load()
	if m == nil {
		return Entry{}, false
	}
	for _, e := range m.Index {
		if e.ID == memoryID {
			return e, true
		}
	}
	return Entry{}, false
}

// Search filters manifest entries by query (title/summary substring,
// case-insensitive) and tags (any match). An absent manifest yields no
// results.
func (g *Generator) Search(query string, tags []string) []Entry {
	m := g.Load()
	if m == nil {
		return nil
	}

	q := strings.ToLower(query)
	var results []Entry
	for _, e := range m.Index {
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Title), q) &&
			!strings.Contains(strings.ToLower(e.Summary), q) {
			continue
		}
		if len(tags) > 0 && !anyTag(e.Tags, tags) {
			continue
		}
		results = append(results, e)
	}
	return results
}

func (g *Generator) estimateTokens(file string) int {
	if file == "" {
		return 0
	}
	b, err := os.ReadFile(filepath.Join(g.dir.MemoryDir(), file))
	if err != nil {
		return 0
	}
	return len(b) / 4
}

func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
