// Package memory is the top-level interface to the store: it owns the
// global and project scopes, converts finished sessions into memory
// entries, and runs cross-scope search and access tracking.
package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/devkeep/devkeep/internal/config"
	"github.com/devkeep/devkeep/internal/fsjson"
	"github.com/devkeep/devkeep/internal/ids"
	"github.com/devkeep/devkeep/internal/index"
	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/session"
	"github.com/devkeep/devkeep/internal/workspace"
)

// ErrNoProjectScope is returned for project-scope operations performed
// outside any project.
var ErrNoProjectScope = errors.New("memory: not inside a project")

// accessTrackerID attributes access-recording log entries.
const accessTrackerID = "access-tracker"

// Manager coordinates the global scope and, when inside a project, the
// project scope.
type Manager struct {
	globalDir  workspace.Dir
	projectDir *workspace.Dir

	globalIndex  *index.Manager
	projectIndex *index.Manager

	cfg config.Config
}

// New builds a manager rooted at workingDir. The global scope is always
// initialized; the project scope is initialized when workingDir sits
// inside a project.
func New(workingDir string) (*Manager, error) {
	m := &Manager{globalDir: workspace.Dir{Root: workspace.GlobalRoot()}}

	if root, ok := workspace.ProjectRoot(workingDir); ok {
		d := workspace.Dir{Root: root}
		m.projectDir = &d
	}

	if err := initScope(m.globalDir); err != nil {
		return nil, err
	}
	m.globalIndex = index.NewManager(m.globalDir, model.ScopeGlobal)
	if err := m.globalIndex.Initialize(); err != nil {
		return nil, err
	}

	if m.projectDir != nil {
		if err := initScope(*m.projectDir); err != nil {
			return nil, err
		}
		m.projectIndex = index.NewManager(*m.projectDir, model.ScopeProject)
		if err := m.projectIndex.Initialize(); err != nil {
			return nil, err
		}
	}

	projectConfig := ""
	if m.projectDir != nil {
		projectConfig = m.projectDir.ConfigPath()
	}
	cfg, err := config.Load(m.globalDir.ConfigPath(), projectConfig)
	if err != nil {
		return nil, err
	}
	m.cfg = cfg
	return m, nil
}

// initScope lays out a scope root's directory structure and default
// config. Idempotent.
func initScope(dir workspace.Dir) error {
	for _, d := range []string{
		dir.LogDir(),
		dir.MemorySessionsDir(),
		dir.ActiveSessionsDir(),
		dir.ArchivedSessionsDir(),
	} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("memory: create %s: %w", d, err)
		}
	}
	if _, err := os.Stat(dir.ConfigPath()); os.IsNotExist(err) {
		return fsjson.Write(dir.ConfigPath(), config.Default())
	}
	return nil
}

// Config returns the merged configuration.
func (m *Manager) Config() config.Config { return m.cfg }

// GlobalDir returns the global scope root.
func (m *Manager) GlobalDir() workspace.Dir { return m.globalDir }

// ProjectDir returns the project scope root, if inside a project.
func (m *Manager) ProjectDir() (workspace.Dir, bool) {
	if m.projectDir == nil {
		return workspace.Dir{}, false
	}
	return *m.projectDir, true
}

// ScopeDir resolves a scope to its root.
func (m *Manager) ScopeDir(scope model.Scope) (workspace.Dir, error) {
	if scope == model.ScopeProject {
		if m.projectDir == nil {
			return workspace.Dir{}, ErrNoProjectScope
		}
		return *m.projectDir, nil
	}
	return m.globalDir, nil
}

// Index resolves a scope to its index manager.
func (m *Manager) Index(scope model.Scope) (*index.Manager, error) {
	if scope == model.ScopeProject {
		if m.projectIndex == nil {
			return nil, ErrNoProjectScope
		}
		return m.projectIndex, nil
	}
	return m.globalIndex, nil
}

// SessionDir returns the scope root sessions belong to: the project when
// inside one, else global.
func (m *Manager) SessionDir() workspace.Dir {
	if m.projectDir != nil {
		return *m.projectDir
	}
	return m.globalDir
}

// SaveSessionParams controls converting a session into a memory entry.
type SaveSessionParams struct {
	Scope   model.Scope
	Type    model.MemoryType
	Tags    []string
	Summary string
}

// SaveSession writes the session's markdown blob, creates a memory entry
// for it, and appends it to the target scope's index. When the pending
// log count reaches the configured threshold the index is compacted in
// the same call.
func (m *Manager) SaveSession(tr *session.Tracker, p SaveSessionParams) (model.MemoryEntry, error) {
	dir, err := m.ScopeDir(p.Scope)
	if err != nil {
		return model.MemoryEntry{}, err
	}
	idx, err := m.Index(p.Scope)
	if err != nil {
		return model.MemoryEntry{}, err
	}
	if p.Type == "" {
		p.Type = model.TypeSession
	}

	data := tr.Data
	filename := data.Started.Format("2006-01-02") + "-" + session.TaskSlug(data.Task) + ".md"

	content := session.Markdown(data)
	if p.Summary != "" {
		content = "## Summary\n" + p.Summary + "\n\n" + content
	}
	blobPath := filepath.Join(dir.MemorySessionsDir(), filename)
	if err := os.MkdirAll(dir.MemorySessionsDir(), 0o755); err != nil {
		return model.MemoryEntry{}, fmt.Errorf("memory: create blob dir: %w", err)
	}
	if err := os.WriteFile(blobPath, []byte(content), 0o644); err != nil {
		return model.MemoryEntry{}, fmt.Errorf("memory: write blob: %w", err)
	}

	title := data.Task
	if title == "" {
		title = "Untitled Session"
	}
	decisions := make([]string, 0, len(data.Decisions))
	for _, d := range data.Decisions {
		decisions = append(decisions, d.Decision)
	}

	entry := model.MemoryEntry{
		ID:            ids.NewMemoryID(string(p.Type)),
		Type:          p.Type,
		Scope:         p.Scope,
		File:          "sessions/" + filename,
		Title:         title,
		Created:       data.Started,
		Updated:       time.Now(),
		Tags:          p.Tags,
		Summary:       p.Summary,
		Keywords:      extractKeywords(data),
		Triggers:      extractTriggers(data, p.Tags),
		FilesModified: data.FilesModified,
		Decisions:     decisions,
	}

	if err := idx.AddMemory(entry, data.SessionID); err != nil {
		return model.MemoryEntry{}, err
	}

	if idx.ShouldRebuild(m.cfg.Rebuild.ThresholdEntries) {
		if err := idx.RebuildIndex(); err != nil {
			if errors.Is(err, index.ErrRebuildLocked) {
				slog.Debug("memory: rebuild skipped, lock held elsewhere", "scope", p.Scope)
			} else {
				return entry, err
			}
		}
	}
	return entry, nil
}

// Search scans the merged index of each requested scope and deduplicates
// by id. An empty scope searches both.
func (m *Manager) Search(p model.SearchParams, scope model.Scope) ([]model.MemoryEntry, error) {
	var results []model.MemoryEntry

	if scope == "" || scope == model.ScopeGlobal {
		ix, err := m.globalIndex.ReadIndex(true)
		if err != nil {
			return nil, err
		}
		results = append(results, ix.Search(p)...)
	}
	if (scope == "" || scope == model.ScopeProject) && m.projectIndex != nil {
		ix, err := m.projectIndex.ReadIndex(true)
		if err != nil {
			return nil, err
		}
		results = append(results, ix.Search(p)...)
	}
	if scope == model.ScopeProject && m.projectIndex == nil {
		return nil, ErrNoProjectScope
	}

	seen := map[string]bool{}
	unique := results[:0]
	for _, e := range results {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		unique = append(unique, e)
	}
	return unique, nil
}

// Get looks an entry up by id, global scope first, then project.
func (m *Manager) Get(memoryID string) (model.MemoryEntry, bool, error) {
	for _, idx := range m.indexes() {
		ix, err := idx.ReadIndex(true)
		if err != nil {
			return model.MemoryEntry{}, false, err
		}
		if e, ok := ix.FindByID(memoryID); ok {
			return e, true, nil
		}
	}
	return model.MemoryEntry{}, false, nil
}

// RecordAccess notes a read of the entry (bumping the counter and, when a
// query is given, the bounded recent-searches buffer) and writes the
// whole updated value back through the entry's scope index. Unknown ids
// are ignored.
func (m *Manager) RecordAccess(memoryID, query string) error {
	entry, ok, err := m.Get(memoryID)
	if err != nil || !ok {
		return err
	}

	entry.Access.Record(time.Now(), query)

	idx, err := m.Index(entry.Scope)
	if err != nil {
		return err
	}
	return idx.UpdateMemory(memoryID, entry, accessTrackerID)
}

// UpdateEntry replaces an entry in its scope's index, attributed to
// sessionID. Used by analysis passes such as skill flagging.
func (m *Manager) UpdateEntry(entry model.MemoryEntry, sessionID string) error {
	idx, err := m.Index(entry.Scope)
	if err != nil {
		return err
	}
	return idx.UpdateMemory(entry.ID, entry, sessionID)
}

// ReadContent returns the markdown blob backing an entry.
func (m *Manager) ReadContent(entry model.MemoryEntry) (string, error) {
	dir, err := m.ScopeDir(entry.Scope)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(dir.MemoryDir(), entry.File))
	if err != nil {
		return "", fmt.Errorf("memory: read content %s: %w", entry.File, err)
	}
	return string(b), nil
}

func (m *Manager) indexes() []*index.Manager {
	out := []*index.Manager{m.globalIndex}
	if m.projectIndex != nil {
		out = append(out, m.projectIndex)
	}
	return out
}
