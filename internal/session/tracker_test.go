package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/workspace"
)

func newTestTracker(t *testing.T) (*Tracker, workspace.Dir) {
	t.Helper()
	dir := workspace.Dir{Root: t.TempDir()}
	tr, err := Open(dir, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return tr, dir
}

func TestOpenCreatesAndReloads(t *testing.T) {
	dir := workspace.Dir{Root: t.TempDir()}

	tr, err := Open(dir, "session-20240101-120000-abc123")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if tr.Data.Status != model.StatusActive {
		t.Errorf("new session should be active, got %s", tr.Data.Status)
	}
	if err := tr.UpdateTask("refactor parser"); err != nil {
		t.Fatal(err)
	}

	again, err := Open(dir, "session-20240101-120000-abc123")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if again.Data.Task != "refactor parser" {
		t.Errorf("expected persisted task, got %q", again.Data.Task)
	}
}

func TestAddFileModifiedIdempotent(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.AddFileModified("main.go")
	tr.AddFileModified("util.go")
	tr.AddFileModified("main.go")

	if len(tr.Data.FilesModified) != 2 {
		t.Errorf("expected 2 files, got %v", tr.Data.FilesModified)
	}
	if tr.Data.FilesModified[0] != "main.go" {
		t.Error("insertion order not preserved")
	}
}

func TestAddDecisionAlwaysAppends(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.AddDecision("use JSON", "human inspectable", []string{"sqlite", "protobuf"})
	tr.AddDecision("use JSON", "human inspectable", nil)

	if len(tr.Data.Decisions) != 2 {
		t.Errorf("decisions must not dedupe, got %d", len(tr.Data.Decisions))
	}
	if tr.Data.Decisions[0].Timestamp.IsZero() {
		t.Error("decision should carry a timestamp")
	}
}

func TestTodoLifecycle(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.AddTodo("write tests")
	tr.AddTodo("write tests")
	tr.AddTodo("update docs")
	if len(tr.Data.Todos) != 2 {
		t.Fatalf("expected 2 todos, got %v", tr.Data.Todos)
	}

	tr.RemoveTodo("write tests")
	if len(tr.Data.Todos) != 1 || tr.Data.Todos[0] != "update docs" {
		t.Errorf("unexpected todos after remove: %v", tr.Data.Todos)
	}

	if err := tr.RemoveTodo("never added"); err != nil {
		t.Errorf("removing unknown todo should be a no-op, got %v", err)
	}
}

func TestMutationsTouchLastUpdated(t *testing.T) {
	tr, _ := newTestTracker(t)
	before := tr.Data.LastUpdated

	time.Sleep(5 * time.Millisecond)
	tr.AddNote("observed flaky test")

	if !tr.Data.LastUpdated.After(before) {
		t.Error("mutation should advance last_updated")
	}
}

func TestArchiveNameSlug(t *testing.T) {
	started := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	got := ArchiveName(started, "Fix login bug in Auth Service")
	want := "2024-03-05-fix-login-bug-in-auth-service.json"
	if got != want {
		t.Errorf("archive name = %q, want %q", got, want)
	}
}

func TestTaskSlugTruncatesBeforeSlugging(t *testing.T) {
	long := strings.Repeat("ab ", 40) // 120 chars
	slug := TaskSlug(long)
	// 50 chars in, every third char a space becoming a hyphen.
	if len(slug) != 50 {
		t.Errorf("expected slug of 50 chars, got %d (%q)", len(slug), slug)
	}
	if strings.ContainsAny(slug, " _/") {
		t.Errorf("slug still contains separators: %q", slug)
	}
}

func TestArchiveMovesFile(t *testing.T) {
	tr, dir := newTestTracker(t)
	tr.UpdateTask("Ship release_notes/v2")

	activePath := filepath.Join(dir.ActiveSessionsDir(), tr.Data.SessionID+".json")
	archivePath, err := tr.Archive("")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}

	if _, err := os.Stat(activePath); !os.IsNotExist(err) {
		t.Error("active file should be gone after archive")
	}
	if _, err := os.Stat(archivePath); err != nil {
		t.Errorf("archive file missing: %v", err)
	}
	if base := filepath.Base(archivePath); !strings.Contains(base, "ship-release-notes-v2") {
		t.Errorf("unexpected archive name %q", base)
	}
}

func TestDiscardDeletesWithoutArchive(t *testing.T) {
	tr, dir := newTestTracker(t)

	if err := tr.Discard(); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if sessions := ListActive(dir); len(sessions) != 0 {
		t.Errorf("expected no active sessions, got %d", len(sessions))
	}
	entries, _ := os.ReadDir(dir.ArchivedSessionsDir())
	if len(entries) != 0 {
		t.Error("discard must not leave an archive record")
	}
}

func TestListActiveSkipsCorrupt(t *testing.T) {
	tr, dir := newTestTracker(t)
	_ = tr

	bad := filepath.Join(dir.ActiveSessionsDir(), "corrupt.json")
	if err := os.WriteFile(bad, []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	sessions := ListActive(dir)
	if len(sessions) != 1 {
		t.Errorf("expected 1 valid session, got %d", len(sessions))
	}
}

func TestStaleSessionIDs(t *testing.T) {
	dir := workspace.Dir{Root: t.TempDir()}
	tr, err := Open(dir, "session-20240101-000000-stale1")
	if err != nil {
		t.Fatal(err)
	}
	tr.Data.LastUpdated = time.Now().Add(-48 * time.Hour)
	if err := tr.Save(); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dir, "session-20240101-000000-fresh1"); err != nil {
		t.Fatal(err)
	}

	stale := StaleSessionIDs(dir, 24)
	if len(stale) != 1 || stale[0] != "session-20240101-000000-stale1" {
		t.Errorf("unexpected stale set: %v", stale)
	}
}

func TestMarkdownRendering(t *testing.T) {
	started := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	data := &model.SessionData{
		SessionID:     "session-20240305-090000-aaaaaa",
		Started:       started,
		LastUpdated:   started.Add(time.Hour),
		Task:          "Fix login bug",
		Status:        model.StatusActive,
		FilesModified: []string{"auth/login.go"},
		Decisions: []model.SessionDecision{
			{Decision: "Keep sessions server-side", Rationale: "simpler invalidation", Alternatives: []string{"JWT"}},
		},
		Problems: []model.SessionProblem{
			{Problem: "Race in token refresh", Solution: "serialize refreshes"},
		},
		Todos: []string{"backfill tests"},
	}

	md := Markdown(data)
	for _, want := range []string{
		"# Session: session-20240305-090000-aaaaaa",
		"**Task**: Fix login bug",
		"- auth/login.go",
		"### Keep sessions server-side",
		"**Alternatives considered**:",
		"**Solution**: serialize refreshes",
		"- [ ] backfill tests",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	empty := Markdown(&model.SessionData{SessionID: "s", Status: model.StatusActive})
	if !strings.Contains(empty, "**Task**: Not specified") {
		t.Error("empty task should render as Not specified")
	}
	if strings.Count(empty, "- None") != 5 {
		t.Errorf("expected 5 empty-section placeholders, got %d", strings.Count(empty, "- None"))
	}
}
