package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/devkeep/devkeep/internal/model"
)

// TagAccess aggregates access counts for one tag.
type TagAccess struct {
	Total int
	Count int
}

// TagStats summarizes tag usage across a set of entries.
type TagStats struct {
	Frequency    map[string]int
	CoOccurrence map[string]map[string]int
	AccessByTag  map[string]TagAccess
	ByTag        map[string][]model.MemoryEntry
}

// CalculateTagStats builds frequency, co-occurrence, and access totals.
func CalculateTagStats(memories []model.MemoryEntry) TagStats {
	stats := TagStats{
		Frequency:    map[string]int{},
		CoOccurrence: map[string]map[string]int{},
		AccessByTag:  map[string]TagAccess{},
		ByTag:        map[string][]model.MemoryEntry{},
	}
	for _, m := range memories {
		for _, tag := range m.Tags {
			stats.Frequency[tag]++
			stats.ByTag[tag] = append(stats.ByTag[tag], m)

			a := stats.AccessByTag[tag]
			a.Total += m.Access.Count
			a.Count++
			stats.AccessByTag[tag] = a

			for _, other := range m.Tags {
				if other == tag {
					continue
				}
				if stats.CoOccurrence[tag] == nil {
					stats.CoOccurrence[tag] = map[string]int{}
				}
				stats.CoOccurrence[tag][other]++
			}
		}
	}
	return stats
}

// TagCloud renders tag frequency, access stats, co-occurrence pairs, and
// orphaned tags.
func TagCloud(memories []model.MemoryEntry, minCount int) string {
	if len(memories) == 0 {
		return warnStyle.Render("No memories found.") + "\n"
	}
	stats := CalculateTagStats(memories)
	if len(stats.Frequency) == 0 {
		return warnStyle.Render("No tags found in memories.") + "\n"
	}

	filtered := map[string]int{}
	for tag, count := range stats.Frequency {
		if count >= minCount {
			filtered[tag] = count
		}
	}
	if len(filtered) == 0 {
		return warnStyle.Render(fmt.Sprintf("No tags with %d+ occurrences found.", minCount)) + "\n"
	}

	sorted := sortByCount(filtered)
	maxCount := filtered[sorted[0]]

	var b strings.Builder
	b.WriteString(header(fmt.Sprintf("Tag Analysis (min count: %d)", minCount),
		fmt.Sprintf("Total unique tags: %d", len(filtered))))

	b.WriteString(section("Tag Cloud (size = frequency)"))
	shown := sorted
	if len(shown) > 20 {
		shown = shown[:20]
	}
	for _, tag := range shown {
		count := filtered[tag]
		fmt.Fprintf(&b, "  %-25s %s %d\n", tag, progressBar(count, maxCount, 12), count)
	}
	if rest := len(sorted) - 20; rest > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... and %d more tags", rest)) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(section("Most Accessed Tags (avg accesses per memory)"))
	writeAccessStats(&b, filtered, stats)
	b.WriteString("\n")

	b.WriteString(section("Tag Relationships (co-occurrence)"))
	top := sorted
	if len(top) > 10 {
		top = top[:10]
	}
	for _, tag := range top {
		fmt.Fprintf(&b, "  %s (%d occurrences)\n", sectionStyle.Render(tag), filtered[tag])
		pairs := topPairs(stats.CoOccurrence[tag], 3)
		if len(pairs) > 0 {
			b.WriteString(mutedStyle.Render("    Often paired with: "+strings.Join(pairs, ", ")) + "\n")
			example := stats.ByTag[tag][0]
			title := example.Title
			if title == "" {
				title = "Untitled"
			}
			b.WriteString(mutedStyle.Render(fmt.Sprintf("    Example: %q", truncateText(title, 50))) + "\n")
		}
	}
	b.WriteString("\n")

	writeOrphanedTags(&b, filtered, stats)
	return b.String()
}

func writeAccessStats(b *strings.Builder, filtered map[string]int, stats TagStats) {
	type row struct {
		tag   string
		avg   float64
		total int
		count int
	}
	var rows []row
	for tag := range filtered {
		a := stats.AccessByTag[tag]
		if a.Count > 0 {
			rows = append(rows, row{tag, float64(a.Total) / float64(a.Count), a.Total, a.Count})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].avg != rows[j].avg {
			return rows[i].avg > rows[j].avg
		}
		return rows[i].tag < rows[j].tag
	})
	if len(rows) > 10 {
		rows = rows[:10]
	}
	for _, r := range rows {
		fmt.Fprintf(b, "  %-25s avg %4.1f× per memory (%d total across %d memories)\n",
			r.tag, r.avg, r.total, r.count)
	}
}

func writeOrphanedTags(b *strings.Builder, filtered map[string]int, stats TagStats) {
	var orphaned []string
	for tag := range filtered {
		if len(stats.CoOccurrence[tag]) == 0 {
			orphaned = append(orphaned, tag)
		}
	}
	if len(orphaned) == 0 {
		return
	}
	sort.Strings(orphaned)
	b.WriteString(section(fmt.Sprintf("Orphaned Tags (%d) - Never appear with other tags", len(orphaned))))
	shown := orphaned
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, tag := range shown {
		count := filtered[tag]
		noun := "occurrences"
		if count == 1 {
			noun = "occurrence"
		}
		fmt.Fprintf(b, "  • %s (%d %s)\n", tag, count, noun)
	}
	if rest := len(orphaned) - 10; rest > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... and %d more", rest)) + "\n")
	}
	b.WriteString("\n")
}

func sortByCount(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func topPairs(pairs map[string]int, n int) []string {
	keys := sortByCount(pairs)
	if len(keys) > n {
		keys = keys[:n]
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s (%d×)", k, pairs[k])
	}
	return out
}
