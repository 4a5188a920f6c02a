package index

import (
	"sort"

	"github.com/devkeep/devkeep/internal/model"
)

// computeStats derives the snapshot statistics block from a merged index.
// Output ordering is deterministic: ties in access count break by id, and
// never-accessed ids come back sorted by creation time.
func computeStats(ix *model.Index) model.IndexStats {
	stats := model.IndexStats{
		ByType:        map[string]int{},
		MostAccessed:  []string{},
		NeverAccessed: []string{},
	}

	entries := ix.Entries()
	for _, m := range entries {
		stats.TotalMemories++
		stats.TotalAccesses += m.Access.Count
		stats.ByType[string(m.Type)]++
	}

	byAccess := make([]model.MemoryEntry, len(entries))
	copy(byAccess, entries)
	sort.SliceStable(byAccess, func(i, j int) bool {
		if byAccess[i].Access.Count != byAccess[j].Access.Count {
			return byAccess[i].Access.Count > byAccess[j].Access.Count
		}
		return byAccess[i].ID < byAccess[j].ID
	})

	for _, m := range byAccess {
		if m.Access.Count > 0 && len(stats.MostAccessed) < 5 {
			stats.MostAccessed = append(stats.MostAccessed, m.ID)
		}
	}

	// entries is already sorted by created ascending, so the first
	// never-accessed entry is the oldest one.
	for _, m := range entries {
		if m.Access.Count == 0 {
			stats.NeverAccessed = append(stats.NeverAccessed, m.ID)
		}
	}
	if len(stats.NeverAccessed) > 0 {
		stats.OldestUnaccessed = stats.NeverAccessed[0]
	}

	return stats
}
