package skills

import (
	"strings"
	"testing"
	"time"

	"github.com/devkeep/devkeep/internal/model"
)

var detectNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sessionEntry(id, title string, created time.Time, tags []string) model.MemoryEntry {
	return model.MemoryEntry{
		ID:      id,
		Type:    model.TypeSession,
		Scope:   model.ScopeProject,
		Title:   title,
		Created: created,
		Updated: created,
		Tags:    tags,
	}
}

func TestDetectProcedures(t *testing.T) {
	recent := detectNow.AddDate(0, 0, -5)
	memories := []model.MemoryEntry{
		sessionEntry("m1", "Deploy staging environment", recent, nil),
		sessionEntry("m2", "Deploy staging environment again", recent, nil),
		sessionEntry("m3", "Deploy staging environment now", recent, nil),
		sessionEntry("m4", "Write release notes", recent, nil),
	}

	candidates := NewDetector(memories).Detect(detectNow, 3, 90)

	var procedures []Candidate
	for _, c := range candidates {
		if c.Kind == KindProcedure {
			procedures = append(procedures, c)
		}
	}
	if len(procedures) != 1 {
		t.Fatalf("procedures = %d, want 1", len(procedures))
	}
	c := procedures[0]
	if c.Occurrences != 3 {
		t.Errorf("occurrences = %d, want 3", c.Occurrences)
	}
	if c.Confidence != "medium" {
		t.Errorf("confidence = %q, want medium", c.Confidence)
	}
	if len(c.RelatedMemories) != 3 {
		t.Errorf("related = %v", c.RelatedMemories)
	}
}

func TestDetectProceduresHighConfidence(t *testing.T) {
	recent := detectNow.AddDate(0, 0, -1)
	var memories []model.MemoryEntry
	for i := 0; i < 6; i++ {
		memories = append(memories, sessionEntry("m"+string(rune('a'+i)), "Rotate api keys", recent, nil))
	}

	candidates := NewDetector(memories).Detect(detectNow, 3, 90)
	if len(candidates) == 0 {
		t.Fatal("no candidates")
	}
	if candidates[0].Confidence != "high" {
		t.Errorf("confidence = %q, want high", candidates[0].Confidence)
	}
}

func TestDetectIgnoresOldEntries(t *testing.T) {
	old := detectNow.AddDate(0, 0, -200)
	memories := []model.MemoryEntry{
		sessionEntry("m1", "Deploy staging", old, nil),
		sessionEntry("m2", "Deploy staging", old, nil),
		sessionEntry("m3", "Deploy staging", old, nil),
	}

	candidates := NewDetector(memories).Detect(detectNow, 3, 90)
	if len(candidates) != 0 {
		t.Fatalf("candidates = %v, want none", candidates)
	}
}

func TestDetectDecisionPatterns(t *testing.T) {
	recent := detectNow.AddDate(0, 0, -10)
	mk := func(id string, decisions ...string) model.MemoryEntry {
		e := sessionEntry(id, "Session "+id, recent, nil)
		e.Type = model.TypeDecision
		e.Decisions = decisions
		return e
	}
	memories := []model.MemoryEntry{
		mk("d1", "use postgres for storage"),
		mk("d2", "use postgres for caching storage"),
		mk("d3", "use postgres storage layer"),
	}

	candidates := NewDetector(memories).Detect(detectNow, 3, 90)

	var found *Candidate
	for i := range candidates {
		if candidates[i].Kind == KindDecisionFramework {
			found = &candidates[i]
		}
	}
	if found == nil {
		t.Fatal("no decision framework candidate")
	}
	if found.Occurrences != 3 {
		t.Errorf("occurrences = %d, want 3", found.Occurrences)
	}
	if !strings.HasPrefix(found.SkillName, "decide-") {
		t.Errorf("skill name = %q", found.SkillName)
	}
}

func TestDetectProblemSolutions(t *testing.T) {
	recent := detectNow.AddDate(0, 0, -10)
	tags := []string{"auth", "timeout"}
	memories := []model.MemoryEntry{
		sessionEntry("p1", "Fix token refresh", recent, tags),
		sessionEntry("p2", "Handle expired sessions", recent, tags),
		sessionEntry("p3", "Retry login flow", recent, tags),
	}

	candidates := NewDetector(memories).Detect(detectNow, 3, 90)

	var found *Candidate
	for i := range candidates {
		if candidates[i].Kind == KindProblemSolution {
			found = &candidates[i]
		}
	}
	if found == nil {
		t.Fatal("no problem solution candidate")
	}
	if found.SkillName != "fix-auth-timeout" {
		t.Errorf("skill name = %q, want fix-auth-timeout", found.SkillName)
	}
	if len(found.Tags) != 2 {
		t.Errorf("tags = %v", found.Tags)
	}
}

func TestFlagMarksRelatedEntries(t *testing.T) {
	recent := detectNow.AddDate(0, 0, -5)
	memories := []model.MemoryEntry{
		sessionEntry("m1", "Deploy staging environment", recent, nil),
		sessionEntry("m2", "Deploy staging environment", recent, nil),
		sessionEntry("m3", "Deploy staging environment", recent, nil),
		sessionEntry("m4", "Unrelated work", recent, nil),
	}

	flagged := Flag(memories, detectNow, 3, 90)
	if len(flagged) != 3 {
		t.Fatalf("flagged = %d, want 3", len(flagged))
	}
	for _, m := range flagged {
		if !m.Skill.Flagged {
			t.Errorf("%s: not flagged", m.ID)
		}
		if m.Skill.CandidateName == "" {
			t.Errorf("%s: empty candidate name", m.ID)
		}
		if len(m.Skill.RelatedMemories) != 3 {
			t.Errorf("%s: related = %v", m.ID, m.Skill.RelatedMemories)
		}
	}
	// Input not mutated.
	if memories[0].Skill.Flagged {
		t.Error("input slice was mutated")
	}
}

func TestReport(t *testing.T) {
	candidates := []Candidate{
		{Kind: KindProcedure, Name: "Deploy Staging", Confidence: "high", Occurrences: 6, SkillName: "deploy-staging", Tags: []string{"deploy"}},
		{Kind: KindProblemSolution, Name: "Auth Problem Pattern", Confidence: "medium", Occurrences: 3, SkillName: "fix-auth", Tags: []string{"auth"}},
	}

	md := Report(candidates, detectNow)
	for _, want := range []string{
		"# Skill Candidates",
		"## High Confidence",
		"### Deploy Staging",
		"## Medium Confidence",
		"`fix-auth`",
		"**Occurrences**: 6",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	empty := Report(nil, detectNow)
	if !strings.Contains(empty, "No skill candidates detected.") {
		t.Errorf("empty report = %q", empty)
	}
}

func TestMergeTagsTopTen(t *testing.T) {
	var members []model.MemoryEntry
	for i := 0; i < 3; i++ {
		members = append(members, model.MemoryEntry{Tags: []string{"common", "tag" + string(rune('a'+i))}})
	}
	tags := mergeTags(members)
	if tags[0] != "common" {
		t.Errorf("tags = %v, want common first", tags)
	}
}
