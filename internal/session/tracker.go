// Package session tracks in-progress work sessions. Each session lives in
// a single JSON file under sessions/active/; every mutation updates
// last_updated and persists the whole record.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devkeep/devkeep/internal/fsjson"
	"github.com/devkeep/devkeep/internal/ids"
	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/workspace"
)

// Tracker manages one active session's file.
type Tracker struct {
	dir  workspace.Dir
	path string
	Data *model.SessionData
}

// Open loads the session with the given id, creating it (and the session
// directories) if it does not exist yet. An empty id generates a new one.
func Open(dir workspace.Dir, sessionID string) (*Tracker, error) {
	if sessionID == "" {
		sessionID = ids.NewSessionID()
	}
	for _, d := range []string{dir.ActiveSessionsDir(), dir.ArchivedSessionsDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("session: create dir %s: %w", d, err)
		}
	}

	t := &Tracker{
		dir:  dir,
		path: filepath.Join(dir.ActiveSessionsDir(), sessionID+".json"),
	}

	var data model.SessionData
	found, err := fsjson.Read(t.path, &data)
	if err != nil {
		return nil, err
	}
	if found {
		t.Data = &data
		return t, nil
	}

	now := time.Now()
	t.Data = &model.SessionData{
		SessionID:   sessionID,
		Started:     now,
		LastUpdated: now,
		Status:      model.StatusActive,
	}
	if err := t.Save(); err != nil {
		return nil, err
	}
	return t, nil
}

// Save persists the full session record.
func (t *Tracker) Save() error {
	return fsjson.Write(t.path, t.Data)
}

func (t *Tracker) touch() {
	t.Data.LastUpdated = time.Now()
}

// UpdateTask sets the task description.
func (t *Tracker) UpdateTask(task string) error {
	t.Data.Task = task
	t.touch()
	return t.Save()
}

// AddFileModified records a modified file. Idempotent.
func (t *Tracker) AddFileModified(path string) error {
	for _, f := range t.Data.FilesModified {
		if f == path {
			return nil
		}
	}
	t.Data.FilesModified = append(t.Data.FilesModified, path)
	t.touch()
	return t.Save()
}

// AddDecision records a decision with its rationale and any alternatives
// considered. Always appends; decisions are not deduplicated.
func (t *Tracker) AddDecision(decision, rationale string, alternatives []string) error {
	t.Data.Decisions = append(t.Data.Decisions, model.SessionDecision{
		Decision:     decision,
		Rationale:    rationale,
		Alternatives: alternatives,
		Timestamp:    time.Now(),
	})
	t.touch()
	return t.Save()
}

// AddProblem records a problem and, if known, its solution. Always appends.
func (t *Tracker) AddProblem(problem, solution string) error {
	t.Data.Problems = append(t.Data.Problems, model.SessionProblem{
		Problem:   problem,
		Solution:  solution,
		Timestamp: time.Now(),
	})
	t.touch()
	return t.Save()
}

// AddNote appends a free-form note.
func (t *Tracker) AddNote(note string) error {
	t.Data.Notes = append(t.Data.Notes, note)
	t.touch()
	return t.Save()
}

// AddTodo records a todo item. Idempotent.
func (t *Tracker) AddTodo(todo string) error {
	for _, td := range t.Data.Todos {
		if td == todo {
			return nil
		}
	}
	t.Data.Todos = append(t.Data.Todos, todo)
	t.touch()
	return t.Save()
}

// RemoveTodo drops a completed todo item. Removing an unknown todo is a
// no-op.
func (t *Tracker) RemoveTodo(todo string) error {
	for i, td := range t.Data.Todos {
		if td == todo {
			t.Data.Todos = append(t.Data.Todos[:i], t.Data.Todos[i+1:]...)
			t.touch()
			return t.Save()
		}
	}
	return nil
}

// Archive moves the session file to the archived directory under a
// date-plus-task-slug name and marks the session archived. Terminal.
// Returns the archive path.
func (t *Tracker) Archive(archiveName string) (string, error) {
	t.Data.Status = model.StatusArchived
	if err := t.Save(); err != nil {
		return "", err
	}

	if archiveName == "" {
		archiveName = ArchiveName(t.Data.Started, t.Data.Task)
	}
	archivePath := filepath.Join(t.dir.ArchivedSessionsDir(), archiveName)
	if err := os.Rename(t.path, archivePath); err != nil {
		return "", fmt.Errorf("session: archive %s: %w", t.Data.SessionID, err)
	}
	return archivePath, nil
}

// Discard deletes the session file without archiving. Terminal.
func (t *Tracker) Discard() error {
	t.Data.Status = model.StatusDiscarded
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: discard %s: %w", t.Data.SessionID, err)
	}
	return nil
}

// ArchiveName builds the archive filename: creation date plus the task
// truncated to 50 characters and slugified.
func ArchiveName(started time.Time, task string) string {
	return started.Format("2006-01-02") + "-" + TaskSlug(task) + ".json"
}

// TaskSlug lowercases the task and replaces spaces, underscores and
// slashes with hyphens. The task is truncated to 50 characters before
// slugging.
func TaskSlug(task string) string {
	runes := []rune(task)
	if len(runes) > 50 {
		runes = runes[:50]
	}
	s := strings.ToLower(string(runes))
	replacer := strings.NewReplacer(" ", "-", "_", "-", "/", "-")
	return replacer.Replace(s)
}

// ListActive returns all parseable sessions in the scope's active
// directory. A missing directory yields no sessions; files that fail to
// parse are skipped with a diagnostic, matching the index's log
// tolerance.
func ListActive(dir workspace.Dir) []model.SessionData {
	entries, err := os.ReadDir(dir.ActiveSessionsDir())
	if err != nil {
		return nil
	}

	var sessions []model.SessionData
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir.ActiveSessionsDir(), e.Name())
		var data model.SessionData
		if _, err := fsjson.Read(path, &data); err != nil {
			slog.Warn("session: skipping unreadable session file", "path", path, "err", err)
			continue
		}
		sessions = append(sessions, data)
	}
	return sessions
}

// StaleSessionIDs returns the ids of active sessions idle for at least
// hoursThreshold hours.
func StaleSessionIDs(dir workspace.Dir, hoursThreshold int) []string {
	now := time.Now()
	var stale []string
	for _, s := range ListActive(dir) {
		if s.Stale(now, hoursThreshold) {
			stale = append(stale, s.SessionID)
		}
	}
	return stale
}
