package viz

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/devkeep/devkeep/internal/fsjson"
	"github.com/devkeep/devkeep/internal/memory"
	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/workspace"
)

const (
	duplicateThreshold = 0.8
	staleDaysThreshold = 180
)

// CheckResult is one integrity check with its findings.
type CheckResult struct {
	Status string // OK, WARNING, ERROR
	Issues []string
}

func scopeDirs(mgr *memory.Manager) []workspace.Dir {
	dirs := []workspace.Dir{mgr.GlobalDir()}
	if projectDir, ok := mgr.ProjectDir(); ok {
		dirs = append(dirs, projectDir)
	}
	return dirs
}

// CheckIndexIntegrity verifies each scope's snapshot exists and replays
// cleanly.
func CheckIndexIntegrity(mgr *memory.Manager) CheckResult {
	var issues []string
	scopes := []model.Scope{model.ScopeGlobal}
	if _, ok := mgr.ProjectDir(); ok {
		scopes = append(scopes, model.ScopeProject)
	}
	for _, scope := range scopes {
		dir, err := mgr.ScopeDir(scope)
		if err != nil {
			continue
		}
		if _, err := os.Stat(dir.IndexPath()); err != nil {
			issues = append(issues, fmt.Sprintf("%s index file missing", scope))
			continue
		}
		ix, err := mgr.Index(scope)
		if err != nil {
			continue
		}
		merged, err := ix.ReadIndex(true)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s index unreadable: %v", scope, err))
			continue
		}
		if merged.Checksum == "" && len(merged.Memories) > 0 {
			issues = append(issues, fmt.Sprintf("%s index has no checksum (never compacted)", scope))
		}
		for _, m := range merged.Entries() {
			blob := filepath.Join(dir.MemoryDir(), filepath.FromSlash(m.File))
			if _, err := os.Stat(blob); err != nil {
				issues = append(issues, fmt.Sprintf("%s: missing blob file %s for %s", scope, m.File, m.ID))
			}
		}
	}
	status := "OK"
	if len(issues) > 0 {
		status = "WARNING"
	}
	return CheckResult{Status: status, Issues: issues}
}

// CheckSessionFiles verifies every active session file parses as JSON.
func CheckSessionFiles(mgr *memory.Manager) CheckResult {
	var issues []string
	for _, dir := range scopeDirs(mgr) {
		names, err := filepath.Glob(filepath.Join(dir.ActiveSessionsDir(), "*.json"))
		if err != nil {
			continue
		}
		for _, name := range names {
			var data model.SessionData
			if _, err := fsjson.Read(name, &data); err != nil {
				issues = append(issues, fmt.Sprintf("invalid session file: %s: %v", filepath.Base(name), err))
			}
		}
	}
	status := "OK"
	if len(issues) > 0 {
		status = "ERROR"
	}
	return CheckResult{Status: status, Issues: issues}
}

// CheckMarkdownArchives verifies every archived session blob is readable.
func CheckMarkdownArchives(mgr *memory.Manager) CheckResult {
	var issues []string
	for _, dir := range scopeDirs(mgr) {
		names, err := filepath.Glob(filepath.Join(dir.MemorySessionsDir(), "*.md"))
		if err != nil {
			continue
		}
		for _, name := range names {
			if _, err := os.ReadFile(name); err != nil {
				issues = append(issues, fmt.Sprintf("unreadable archive: %s: %v", filepath.Base(name), err))
			}
		}
	}
	status := "OK"
	if len(issues) > 0 {
		status = "WARNING"
	}
	return CheckResult{Status: status, Issues: issues}
}

// FindUntagged returns entries with no tags.
func FindUntagged(memories []model.MemoryEntry) []model.MemoryEntry {
	var out []model.MemoryEntry
	for _, m := range memories {
		if len(m.Tags) == 0 {
			out = append(out, m)
		}
	}
	return out
}

// FindNeverAccessed returns entries with a zero access count.
func FindNeverAccessed(memories []model.MemoryEntry) []model.MemoryEntry {
	var out []model.MemoryEntry
	for _, m := range memories {
		if m.Access.Count == 0 {
			out = append(out, m)
		}
	}
	return out
}

// DuplicatePair is two entries with suspiciously similar titles.
type DuplicatePair struct {
	A, B       model.MemoryEntry
	Similarity float64
}

// FindPotentialDuplicates pairs entries whose titles score at or above
// the threshold on bigram similarity.
func FindPotentialDuplicates(memories []model.MemoryEntry, threshold float64) []DuplicatePair {
	var pairs []DuplicatePair
	for i, a := range memories {
		if a.Title == "" {
			continue
		}
		for _, b := range memories[i+1:] {
			if b.Title == "" {
				continue
			}
			sim := titleSimilarity(a.Title, b.Title)
			if sim >= threshold {
				pairs = append(pairs, DuplicatePair{A: a, B: b, Similarity: sim})
			}
		}
	}
	return pairs
}

// titleSimilarity is the Dice coefficient over character bigrams of the
// lowercased titles. Identical strings score 1.
func titleSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	shared := 0
	for g, n := range ba {
		if m := bb[g]; m > 0 {
			if n < m {
				shared += n
			} else {
				shared += m
			}
		}
	}
	total := 0
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}
	return 2 * float64(shared) / float64(total)
}

func bigrams(s string) map[string]int {
	grams := map[string]int{}
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

// FindStale returns entries older than the day threshold with zero accesses.
func FindStale(memories []model.MemoryEntry, now time.Time, daysThreshold int) []model.MemoryEntry {
	cutoff := now.AddDate(0, 0, -daysThreshold)
	var out []model.MemoryEntry
	for _, m := range memories {
		if m.Created.Before(cutoff) && m.Access.Count == 0 {
			out = append(out, m)
		}
	}
	return out
}

// HealthReport renders the full health check.
func HealthReport(mgr *memory.Manager, memories []model.MemoryEntry, now time.Time) string {
	var b strings.Builder
	b.WriteString(header("Memory Health Check", ""))

	b.WriteString(section("System Integrity"))
	writeCheck(&b, "Index integrity", CheckIndexIntegrity(mgr))
	writeCheck(&b, "Session files", CheckSessionFiles(mgr))
	writeCheck(&b, "Markdown archives", CheckMarkdownArchives(mgr))
	b.WriteString("\n")

	warned := false
	warned = writeFinding(&b, "Untagged Sessions", FindUntagged(memories), now,
		"Add tags for better searchability", "") || warned
	warned = writeFinding(&b, "Never Accessed", FindNeverAccessed(memories), now,
		"May be outdated or unused", "created") || warned
	warned = writeDuplicates(&b, FindPotentialDuplicates(memories, duplicateThreshold)) || warned
	warned = writeFinding(&b, "Stale Sessions", FindStale(memories, now, staleDaysThreshold), now,
		"Consider archiving or deleting", "stale") || warned

	if !warned {
		b.WriteString(okStyle.Render("✓ No warnings found") + "\n")
	}
	return b.String()
}

func writeCheck(b *strings.Builder, label string, result CheckResult) {
	style := okStyle
	switch result.Status {
	case "WARNING":
		style = warnStyle
	case "ERROR":
		style = errorStyle
	}
	fmt.Fprintf(b, "  %s: %s\n", label, style.Render(result.Status))
	for _, issue := range result.Issues {
		b.WriteString("    " + warnStyle.Render("⚠ "+issue) + "\n")
	}
}

func writeFinding(b *strings.Builder, label string, items []model.MemoryEntry, now time.Time, suggestion, ageKind string) bool {
	if len(items) == 0 {
		return false
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Created.Before(items[j].Created) })

	b.WriteString(section(fmt.Sprintf("%s (%d)", label, len(items))))
	shown := items
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, m := range shown {
		title := m.Title
		if title == "" {
			title = "Untitled"
		}
		line := "  • " + truncateText(title, 60)
		days := int(now.Sub(m.Created).Hours() / 24)
		switch ageKind {
		case "created":
			line += fmt.Sprintf(" (created %dd ago)", days)
		case "stale":
			line += fmt.Sprintf(" (%dd old, 0 accesses)", days)
		}
		b.WriteString(line + "\n")
	}
	if rest := len(items) - 10; rest > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... and %d more", rest)) + "\n")
	}
	b.WriteString(mutedStyle.Render("  → "+suggestion) + "\n\n")
	return true
}

func writeDuplicates(b *strings.Builder, pairs []DuplicatePair) bool {
	if len(pairs) == 0 {
		return false
	}
	noun := "pairs"
	if len(pairs) == 1 {
		noun = "pair"
	}
	b.WriteString(section(fmt.Sprintf("Potential Duplicates (%d %s)", len(pairs), noun)))
	shown := pairs
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, p := range shown {
		fmt.Fprintf(b, "  • %q vs %q (%.0f%% similar)\n",
			truncateText(p.A.Title, 40), truncateText(p.B.Title, 40), p.Similarity*100)
	}
	if rest := len(pairs) - 5; rest > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... and %d more pairs", rest)) + "\n")
	}
	b.WriteString(mutedStyle.Render("  → Check if they should be merged") + "\n\n")
	return true
}
