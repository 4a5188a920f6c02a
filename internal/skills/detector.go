// Package skills detects repeated patterns across memory entries that
// are worth extracting into reusable skills.
package skills

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/devkeep/devkeep/internal/model"
)

// Candidate kinds.
const (
	KindProcedure         = "procedure"
	KindDecisionFramework = "decision_framework"
	KindProblemSolution   = "problem_solution"
)

// Candidate is a detected pattern with the entries that back it.
type Candidate struct {
	Kind            string   `json:"type"`
	Name            string   `json:"name"`
	Confidence      string   `json:"confidence"`
	Occurrences     int      `json:"occurrences"`
	RelatedMemories []string `json:"related_memories"`
	Tags            []string `json:"tags"`
	SkillName       string   `json:"suggested_skill_name"`
}

// Detector finds skill candidates in a set of memory entries.
type Detector struct {
	memories []model.MemoryEntry
}

// NewDetector returns a detector over the given entries.
func NewDetector(memories []model.MemoryEntry) *Detector {
	return &Detector{memories: memories}
}

// Detect returns candidates whose pattern repeats at least minOccurrences
// times among entries created within the last withinDays days.
func (d *Detector) Detect(now time.Time, minOccurrences, withinDays int) []Candidate {
	cutoff := now.AddDate(0, 0, -withinDays)

	var recent []model.MemoryEntry
	for _, m := range d.memories {
		if !m.Created.Before(cutoff) {
			recent = append(recent, m)
		}
	}

	var candidates []Candidate
	candidates = append(candidates, detectProcedures(recent, minOccurrences)...)
	candidates = append(candidates, detectDecisionPatterns(recent, minOccurrences)...)
	candidates = append(candidates, detectProblemSolutions(recent, minOccurrences)...)
	return candidates
}

type group struct {
	key     string
	words   map[string]bool
	members []model.MemoryEntry
}

// detectProcedures groups entries whose normalized titles share more than
// 60% of their words and reports groups that repeat often enough.
func detectProcedures(memories []model.MemoryEntry, minOccurrences int) []Candidate {
	var groups []*group

	for _, m := range memories {
		normalized := normalizeText(m.Title)
		words := wordSet(normalized)

		matched := false
		for _, g := range groups {
			if overlap(words, g.words) > 0.6 {
				g.members = append(g.members, m)
				matched = true
				break
			}
		}
		if !matched {
			groups = append(groups, &group{key: normalized, words: words, members: []model.MemoryEntry{m}})
		}
	}

	var candidates []Candidate
	for _, g := range groups {
		count := len(g.members)
		if count < minOccurrences {
			continue
		}
		confidence := "medium"
		if count >= minOccurrences*2 {
			confidence = "high"
		}
		candidates = append(candidates, Candidate{
			Kind:            KindProcedure,
			Name:            titleCase(strings.ReplaceAll(g.key, "-", " ")),
			Confidence:      confidence,
			Occurrences:     count,
			RelatedMemories: memoryIDs(g.members),
			Tags:            mergeTags(g.members),
			SkillName:       skillName(g.key),
		})
	}
	return candidates
}

// detectDecisionPatterns groups decision-bearing entries by shared decision
// keywords (more than 50% overlap).
func detectDecisionPatterns(memories []model.MemoryEntry, minOccurrences int) []Candidate {
	var groups []*group

	for _, m := range memories {
		if m.Type != model.TypeDecision && len(m.Decisions) == 0 {
			continue
		}
		keywords := map[string]bool{}
		for _, decision := range m.Decisions {
			for w := range wordSet(normalizeText(decision)) {
				keywords[w] = true
			}
		}

		matched := false
		for _, g := range groups {
			if overlap(keywords, g.words) > 0.5 {
				g.members = append(g.members, m)
				matched = true
				break
			}
		}
		if !matched && len(keywords) > 0 {
			sorted := sortedWords(keywords)
			if len(sorted) > 5 {
				sorted = sorted[:5]
			}
			key := strings.Join(sorted, " ")
			groups = append(groups, &group{key: key, words: keywords, members: []model.MemoryEntry{m}})
		}
	}

	var candidates []Candidate
	for _, g := range groups {
		if len(g.members) < minOccurrences {
			continue
		}
		candidates = append(candidates, Candidate{
			Kind:            KindDecisionFramework,
			Name:            truncate(g.key, 50) + " Decision Pattern",
			Confidence:      "medium",
			Occurrences:     len(g.members),
			RelatedMemories: memoryIDs(g.members),
			Tags:            mergeTags(g.members),
			SkillName:       "decide-" + strings.ReplaceAll(truncate(g.key, 20), " ", "-"),
		})
	}
	return candidates
}

// detectProblemSolutions groups entries by their tag signature (first five
// tags, sorted). Entries with identical signatures likely describe the
// same class of problem.
func detectProblemSolutions(memories []model.MemoryEntry, minOccurrences int) []Candidate {
	bySignature := map[string][]model.MemoryEntry{}
	var order []string

	for _, m := range memories {
		tags := m.Tags
		if len(tags) > 5 {
			tags = tags[:5]
		}
		if len(tags) == 0 {
			continue
		}
		sorted := append([]string(nil), tags...)
		sort.Strings(sorted)
		sig := strings.Join(sorted, "\x00")
		if _, ok := bySignature[sig]; !ok {
			order = append(order, sig)
		}
		bySignature[sig] = append(bySignature[sig], m)
	}

	var candidates []Candidate
	for _, sig := range order {
		members := bySignature[sig]
		if len(members) < minOccurrences {
			continue
		}
		tags := strings.Split(sig, "\x00")
		tagStr := strings.Join(tags, "-")
		candidates = append(candidates, Candidate{
			Kind:            KindProblemSolution,
			Name:            titleCase(strings.ReplaceAll(tagStr, "-", " ")) + " Problem Pattern",
			Confidence:      "medium",
			Occurrences:     len(members),
			RelatedMemories: memoryIDs(members),
			Tags:            tags,
			SkillName:       "fix-" + truncate(tagStr, 30),
		})
	}
	return candidates
}

// Flag marks entries that back a detected candidate and returns the flagged
// entries. Confidence and the suggested name come from the candidate.
func Flag(memories []model.MemoryEntry, now time.Time, minOccurrences, withinDays int) []model.MemoryEntry {
	candidates := NewDetector(memories).Detect(now, minOccurrences, withinDays)

	byID := map[string]Candidate{}
	for _, c := range candidates {
		for _, id := range c.RelatedMemories {
			byID[id] = c
		}
	}

	var flagged []model.MemoryEntry
	for _, m := range memories {
		c, ok := byID[m.ID]
		if !ok {
			continue
		}
		m.Skill = model.SkillCandidate{
			Flagged:         true,
			CandidateName:   c.SkillName,
			Confidence:      c.Confidence,
			RelatedMemories: c.RelatedMemories,
		}
		flagged = append(flagged, m)
	}
	return flagged
}

// Report renders candidates as a markdown document grouped by confidence.
func Report(candidates []Candidate, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Skill Candidates\n\n")
	fmt.Fprintf(&b, "**Generated**: %s\n\n", now.Format("2006-01-02 15:04:05"))

	if len(candidates) == 0 {
		b.WriteString("No skill candidates detected.\n")
		return b.String()
	}

	sections := []struct {
		confidence string
		heading    string
	}{
		{"high", "## High Confidence\n\n"},
		{"medium", "## Medium Confidence\n\n"},
		{"low", "## Low Confidence\n\n"},
	}
	for _, s := range sections {
		var matched []Candidate
		for _, c := range candidates {
			if c.Confidence == s.confidence {
				matched = append(matched, c)
			}
		}
		if len(matched) == 0 {
			continue
		}
		b.WriteString(s.heading)
		for _, c := range matched {
			writeCandidate(&b, c)
		}
	}
	return b.String()
}

func writeCandidate(b *strings.Builder, c Candidate) {
	fmt.Fprintf(b, "### %s\n", c.Name)
	fmt.Fprintf(b, "- **Type**: %s\n", c.Kind)
	fmt.Fprintf(b, "- **Occurrences**: %d\n", c.Occurrences)
	fmt.Fprintf(b, "- **Tags**: %s\n", strings.Join(c.Tags, ", "))
	fmt.Fprintf(b, "- **Suggested Skill Name**: `%s`\n", c.SkillName)
	fmt.Fprintf(b, "- **Related Memories**: %d\n", len(c.RelatedMemories))
	b.WriteString("\n")
}

func normalizeText(text string) string {
	s := strings.ToLower(text)
	s = strings.NewReplacer("_", "-", "/", "-").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func wordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func overlap(a, b map[string]bool) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if b[w] {
			shared++
		}
	}
	return float64(shared) / float64(n)
}

func sortedWords(set map[string]bool) []string {
	words := make([]string, 0, len(set))
	for w := range set {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

func memoryIDs(members []model.MemoryEntry) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

// mergeTags returns the ten most common tags across the members, most
// frequent first, ties broken alphabetically.
func mergeTags(members []model.MemoryEntry) []string {
	counts := map[string]int{}
	for _, m := range members {
		for _, t := range m.Tags {
			counts[t]++
		}
	}
	tags := make([]string, 0, len(counts))
	for t := range counts {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > 10 {
		tags = tags[:10]
	}
	return tags
}

// skillName keeps the first four hyphen-separated words of the task.
func skillName(task string) string {
	words := strings.SplitN(task, "-", 5)
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.Join(words, "-")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
