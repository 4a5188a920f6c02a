package memory

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/session"
)

// newTestManager points the global scope at a temp home and, when
// inProject is true, roots the working directory in a temp project.
func newTestManager(t *testing.T, inProject bool) *Manager {
	t.Helper()
	t.Setenv("DEVKEEP_HOME", filepath.Join(t.TempDir(), "home"))

	workingDir := t.TempDir()
	if inProject {
		if err := os.MkdirAll(filepath.Join(workingDir, ".git"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	m, err := New(workingDir)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func startSession(t *testing.T, m *Manager, task string) *session.Tracker {
	t.Helper()
	tr, err := session.Open(m.SessionDir(), "")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	if task != "" {
		if err := tr.UpdateTask(task); err != nil {
			t.Fatal(err)
		}
	}
	return tr
}

func TestNewInitializesGlobalScope(t *testing.T) {
	m := newTestManager(t, false)

	if _, err := os.Stat(m.GlobalDir().IndexPath()); err != nil {
		t.Errorf("global snapshot missing: %v", err)
	}
	if _, err := os.Stat(m.GlobalDir().ConfigPath()); err != nil {
		t.Errorf("default config missing: %v", err)
	}
	if _, ok := m.ProjectDir(); ok {
		t.Error("no project scope expected outside a project")
	}
	if m.Config().Rebuild.ThresholdEntries != 20 {
		t.Errorf("default threshold = %d", m.Config().Rebuild.ThresholdEntries)
	}
}

func TestProjectScopeDetection(t *testing.T) {
	m := newTestManager(t, true)

	dir, ok := m.ProjectDir()
	if !ok {
		t.Fatal("expected project scope inside a project")
	}
	if filepath.Base(dir.Root) != ".devkeep" {
		t.Errorf("project root should be .devkeep, got %s", dir.Root)
	}
	if _, err := m.Index(model.ScopeProject); err != nil {
		t.Errorf("project index unavailable: %v", err)
	}
}

func TestProjectScopeErrorOutsideProject(t *testing.T) {
	m := newTestManager(t, false)

	if _, err := m.Index(model.ScopeProject); !errors.Is(err, ErrNoProjectScope) {
		t.Errorf("expected ErrNoProjectScope, got %v", err)
	}
	tr := startSession(t, m, "anything")
	_, err := m.SaveSession(tr, SaveSessionParams{Scope: model.ScopeProject})
	if !errors.Is(err, ErrNoProjectScope) {
		t.Errorf("expected ErrNoProjectScope from save, got %v", err)
	}
}

func TestSaveSessionCreatesEntryAndBlob(t *testing.T) {
	m := newTestManager(t, false)
	tr := startSession(t, m, "Fix auth API timeout")
	tr.AddFileModified("internal/auth/token.go")
	tr.AddDecision("retry with backoff", "transient upstream failures", nil)

	entry, err := m.SaveSession(tr, SaveSessionParams{
		Scope:   model.ScopeGlobal,
		Tags:    []string{"auth"},
		Summary: "timeout handling",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if !strings.HasPrefix(entry.ID, "session-") {
		t.Errorf("unexpected id %q", entry.ID)
	}
	if entry.Title != "Fix auth API timeout" {
		t.Errorf("unexpected title %q", entry.Title)
	}
	if len(entry.Decisions) != 1 || entry.Decisions[0] != "retry with backoff" {
		t.Errorf("decisions not carried over: %v", entry.Decisions)
	}

	content, err := m.ReadContent(entry)
	if err != nil {
		t.Fatalf("read content: %v", err)
	}
	if !strings.HasPrefix(content, "## Summary\ntimeout handling") {
		t.Error("summary should lead the markdown blob")
	}

	idx, _ := m.Index(model.ScopeGlobal)
	ix, _ := idx.ReadIndex(true)
	if _, ok := ix.FindByID(entry.ID); !ok {
		t.Error("saved entry not visible in merged index")
	}
}

func TestSaveSessionAutoRebuild(t *testing.T) {
	t.Setenv("DEVKEEP_REBUILD_THRESHOLD", "1")
	m := newTestManager(t, false)
	tr := startSession(t, m, "small change")

	if _, err := m.SaveSession(tr, SaveSessionParams{Scope: model.ScopeGlobal}); err != nil {
		t.Fatal(err)
	}

	idx, _ := m.Index(model.ScopeGlobal)
	if idx.PendingLogs() != 0 {
		t.Errorf("expected compaction at threshold 1, %d logs pending", idx.PendingLogs())
	}
	ix, _ := idx.ReadIndex(false)
	if len(ix.Memories) != 1 {
		t.Errorf("snapshot should hold the entry after compaction, got %d", len(ix.Memories))
	}
}

func TestSearchAcrossScopes(t *testing.T) {
	m := newTestManager(t, true)

	globalSession := startSession(t, m, "global: tune database pool")
	if _, err := m.SaveSession(globalSession, SaveSessionParams{Scope: model.ScopeGlobal}); err != nil {
		t.Fatal(err)
	}
	projectSession := startSession(t, m, "project: database migration script")
	if _, err := m.SaveSession(projectSession, SaveSessionParams{Scope: model.ScopeProject}); err != nil {
		t.Fatal(err)
	}

	both, err := m.Search(model.SearchParams{Query: "database"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(both) != 2 {
		t.Errorf("expected hits from both scopes, got %d", len(both))
	}

	projectOnly, err := m.Search(model.SearchParams{Query: "database"}, model.ScopeProject)
	if err != nil {
		t.Fatal(err)
	}
	if len(projectOnly) != 1 || projectOnly[0].Scope != model.ScopeProject {
		t.Errorf("project-only search leaked scopes: %+v", projectOnly)
	}
}

func TestRecordAccess(t *testing.T) {
	m := newTestManager(t, false)
	tr := startSession(t, m, "investigate flaky test")
	entry, err := m.SaveSession(tr, SaveSessionParams{Scope: model.ScopeGlobal})
	if err != nil {
		t.Fatal(err)
	}

	if err := m.RecordAccess(entry.ID, "flaky"); err != nil {
		t.Fatalf("record access: %v", err)
	}
	if err := m.RecordAccess(entry.ID, ""); err != nil {
		t.Fatal(err)
	}

	got, ok, err := m.Get(entry.ID)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Access.Count != 2 {
		t.Errorf("access count = %d, want 2", got.Access.Count)
	}
	if len(got.Access.RecentSearches) != 1 || got.Access.RecentSearches[0].Query != "flaky" {
		t.Errorf("recent searches = %+v", got.Access.RecentSearches)
	}
	if got.Access.FirstAccessed == nil {
		t.Error("first_accessed should be set")
	}
}

func TestRecordAccessUnknownIDIsNoOp(t *testing.T) {
	m := newTestManager(t, false)
	if err := m.RecordAccess("memory-19700101-000000-zzzz", "q"); err != nil {
		t.Errorf("unknown id should be ignored, got %v", err)
	}
}

func TestExtractKeywords(t *testing.T) {
	data := &model.SessionData{
		Task: "Fix login bug",
		Decisions: []model.SessionDecision{
			{Decision: "use refresh tokens"},
		},
		FilesModified: []string{"internal/auth/login.go", "docs/notes.md"},
	}

	kws := extractKeywords(data)
	want := []string{"auth", "bug", "docs", "fix", "internal", "login", "refresh", "tokens", "use"}
	for _, w := range want {
		if !contains(kws, w) {
			t.Errorf("missing keyword %q in %v", w, kws)
		}
	}
	if contains(kws, "go") {
		t.Error("short tokens should be dropped")
	}
}

func TestExtractTriggers(t *testing.T) {
	data := &model.SessionData{
		Task:          "wire auth into the API layer",
		FilesModified: []string{"handlers/login.go", "schema.sql"},
	}
	trs := extractTriggers(data, []string{"security"})

	for _, w := range []string{"security", ".go", ".sql", "auth", "api"} {
		if !contains(trs, w) {
			t.Errorf("missing trigger %q in %v", w, trs)
		}
	}
}

func TestAssembleContext(t *testing.T) {
	m := newTestManager(t, false)

	recent := startSession(t, m, "database tuning notes")
	recent.AddNote(strings.Repeat("useful context ", 50))
	if _, err := m.SaveSession(recent, SaveSessionParams{Scope: model.ScopeGlobal}); err != nil {
		t.Fatal(err)
	}

	res, err := m.AssembleContext(ContextParams{Query: "database", Budget: 4000})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(res.Memories) != 1 {
		t.Fatalf("expected 1 memory, got %d", len(res.Memories))
	}
	if res.Used == 0 {
		t.Error("expected nonzero token usage")
	}
	if res.Memories[0].Excerpt {
		t.Error("content within budget should not be excerpted")
	}

	// A tiny budget forces an excerpt.
	small, err := m.AssembleContext(ContextParams{Query: "database", Budget: 50})
	if err != nil {
		t.Fatal(err)
	}
	if len(small.Memories) != 1 || !small.Memories[0].Excerpt {
		t.Errorf("expected excerpted memory under tiny budget: %+v", small.Memories)
	}
	if !strings.HasSuffix(small.Memories[0].Content, "...") {
		t.Error("excerpt should be marked with an ellipsis")
	}

	none, err := m.AssembleContext(ContextParams{Query: "no such topic anywhere"})
	if err != nil {
		t.Fatal(err)
	}
	if len(none.Memories) != 0 || none.Used != 0 {
		t.Errorf("expected empty result, got %+v", none)
	}
}

func TestAssembleContextExcerptKeepsRunesWhole(t *testing.T) {
	m := newTestManager(t, false)

	tr := startSession(t, m, "unicode heavy notes")
	tr.AddNote(strings.Repeat("héllö wörld ", 60))
	if _, err := m.SaveSession(tr, SaveSessionParams{Scope: model.ScopeGlobal}); err != nil {
		t.Fatal(err)
	}

	// Sweep budgets so some cut point lands inside a multi-byte rune.
	for budget := 40; budget <= 60; budget++ {
		res, err := m.AssembleContext(ContextParams{Query: "unicode", Budget: budget})
		if err != nil {
			t.Fatalf("budget %d: %v", budget, err)
		}
		for _, cm := range res.Memories {
			if !cm.Excerpt {
				continue
			}
			if !utf8.ValidString(cm.Content) {
				t.Fatalf("budget %d: excerpt split a rune: %q", budget, cm.Content)
			}
		}
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestSaveSessionBlobFilename(t *testing.T) {
	m := newTestManager(t, false)
	tr := startSession(t, m, "Fix login bug in Auth Service")
	tr.Data.Started = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	if err := tr.Save(); err != nil {
		t.Fatal(err)
	}

	entry, err := m.SaveSession(tr, SaveSessionParams{Scope: model.ScopeGlobal})
	if err != nil {
		t.Fatal(err)
	}
	if entry.File != "sessions/2024-03-05-fix-login-bug-in-auth-service.md" {
		t.Errorf("unexpected blob path %q", entry.File)
	}
}
