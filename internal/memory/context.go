package memory

import (
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/devkeep/devkeep/internal/model"
)

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	Query  string
	Tags   []string
	Type   model.MemoryType
	Scope  model.Scope // empty searches both scopes
	Budget int         // max tokens in output (rough proxy: 1 token ≈ 4 chars)
}

// ContextMemory is a scored memory included in an assembled context.
type ContextMemory struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Type    string  `json:"type"`
	Scope   string  `json:"scope"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Excerpt bool    `json:"excerpt,omitempty"`
}

// ContextResult is the assembled context response.
type ContextResult struct {
	Budget   int             `json:"budget"`
	Used     int             `json:"used"`
	Memories []ContextMemory `json:"memories"`
}

// AssembleContext gathers the memories most relevant to the query and
// greedily packs their markdown content into a token budget. Scoring
// favors recently created and frequently accessed entries; the last
// entry that does not fit whole may be excerpted.
func (m *Manager) AssembleContext(p ContextParams) (*ContextResult, error) {
	budget := p.Budget
	if budget <= 0 {
		budget = 4000
	}
	charBudget := budget * 4

	matches, err := m.Search(model.SearchParams{Query: p.Query, Tags: p.Tags, Type: p.Type}, p.Scope)
	if err != nil {
		return nil, err
	}

	result := &ContextResult{Budget: budget, Memories: []ContextMemory{}}
	if len(matches) == 0 {
		return result, nil
	}

	now := time.Now()
	type scored struct {
		entry model.MemoryEntry
		score float64
	}
	candidates := make([]scored, 0, len(matches))
	for _, e := range matches {
		// Recency: exponential decay over age in days.
		age := now.Sub(e.Created).Hours() / 24.0
		recency := math.Exp(-0.1 * age)

		// Access frequency on a log scale, capped at 1.
		accessFreq := 0.0
		if e.Access.Count > 0 {
			accessFreq = math.Log(float64(e.Access.Count)+1) / math.Log(100)
			if accessFreq > 1 {
				accessFreq = 1
			}
		}

		candidates = append(candidates, scored{entry: e, score: recency*0.6 + accessFreq*0.4})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	used := 0
	for _, c := range candidates {
		content, err := m.ReadContent(c.entry)
		if err != nil {
			// A missing blob is metadata drift, not a reason to abort.
			continue
		}

		cm := ContextMemory{
			ID:    c.entry.ID,
			Title: c.entry.Title,
			Type:  string(c.entry.Type),
			Scope: string(c.entry.Scope),
			Score: math.Round(c.score*100) / 100,
		}

		if used+len(content) <= charBudget {
			cm.Content = content
			result.Memories = append(result.Memories, cm)
			used += len(content)
			continue
		}
		if remaining := charBudget - used; remaining >= 100 {
			// Back up so the cut never splits a multi-byte rune.
			cut := remaining
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			cm.Content = content[:cut] + "..."
			cm.Excerpt = true
			result.Memories = append(result.Memories, cm)
			used += cut
		}
		break
	}

	result.Used = used / 4
	return result, nil
}
