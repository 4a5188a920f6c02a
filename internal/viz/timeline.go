package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/devkeep/devkeep/internal/model"
)

// TimelineParams filter the timeline view.
type TimelineParams struct {
	Scope         model.Scope // empty means both
	Type          model.MemoryType
	Days          int // 0 means no cutoff
	MinAccesses   int
	NeverAccessed bool
	Now           time.Time
}

// Timeline renders entries grouped by month, newest month first.
func Timeline(memories []model.MemoryEntry, p TimelineParams) string {
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	memories = filterTimeline(memories, p)
	if len(memories) == 0 {
		return warnStyle.Render("No memories found matching the criteria.") + "\n"
	}

	grouped, months := groupByMonth(memories)

	maxCount := 1
	for _, ms := range grouped {
		if len(ms) > maxCount {
			maxCount = len(ms)
		}
	}

	var b strings.Builder
	for _, month := range months {
		entries := grouped[month]
		bar := progressBar(len(entries), maxCount, 20)
		noun := "sessions"
		if len(entries) == 1 {
			noun = "session"
		}
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s %s %d %s", month, bar, len(entries), noun)))
		b.WriteString("\n")

		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Created.After(entries[j].Created)
		})

		for _, m := range entries {
			writeTimelineEntry(&b, m, p.Now)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeTimelineEntry(b *strings.Builder, m model.MemoryEntry, now time.Time) {
	title := m.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(b, "  [%s] %s (%s, %s)\n", m.Created.Format("2006-01-02"), title, formatScope(m.Scope), formatType(m.Type))

	detail := fmt.Sprintf("    Files: %d | Decisions: %d", len(m.FilesModified), len(m.Decisions))
	if m.Access.Count > 0 {
		detail += " | " + formatAccessCount(m.Access.Count)
		if m.Access.LastAccessed != nil {
			detail += mutedStyle.Render(fmt.Sprintf(" (last %s)", formatRelative(now, *m.Access.LastAccessed)))
		}
	}
	b.WriteString(detail)
	b.WriteString("\n")

	if len(m.Tags) > 0 {
		b.WriteString("    " + formatTags(m.Tags, 5) + "\n")
	}
}

func filterTimeline(memories []model.MemoryEntry, p TimelineParams) []model.MemoryEntry {
	var out []model.MemoryEntry
	cutoff := time.Time{}
	if p.Days > 0 {
		cutoff = p.Now.AddDate(0, 0, -p.Days)
	}
	for _, m := range memories {
		if !cutoff.IsZero() && m.Created.Before(cutoff) {
			continue
		}
		if p.Scope != "" && m.Scope != p.Scope {
			continue
		}
		if p.Type != "" && m.Type != p.Type {
			continue
		}
		if p.NeverAccessed {
			if m.Access.Count != 0 {
				continue
			}
		} else if p.MinAccesses > 0 && m.Access.Count < p.MinAccesses {
			continue
		}
		out = append(out, m)
	}
	return out
}

// groupByMonth buckets entries by creation month, newest month first.
func groupByMonth(memories []model.MemoryEntry) (map[string][]model.MemoryEntry, []string) {
	grouped := map[string][]model.MemoryEntry{}
	for _, m := range memories {
		key := m.Created.Format("2006-01")
		grouped[key] = append(grouped[key], m)
	}
	months := make([]string, 0, len(grouped))
	for month := range grouped {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return grouped, months
}
