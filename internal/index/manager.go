// Package index maintains a scope's memory index as a snapshot file plus
// an append-only log of per-operation files.
//
// Writes never rewrite shared state in place: every add/update/delete
// becomes a brand-new log file whose name embeds a microsecond timestamp
// and the writer's session id, so concurrent writers cannot collide on a
// filename. Reads merge the snapshot with every log file present, in
// lexicographic filename order, which equals chronological order with the
// session id as tiebreak. Compaction folds the logs back into the
// snapshot and removes exactly the log files it consumed.
package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/devkeep/devkeep/internal/fsjson"
	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/workspace"
)

// DefaultRebuildThreshold is the log-file count at which ShouldRebuild
// starts advising compaction.
const DefaultRebuildThreshold = 20

// Manager provides crash-tolerant access to one scope's memory index.
type Manager struct {
	dir   workspace.Dir
	scope model.Scope
}

// NewManager returns a manager for the index under the given scope root.
func NewManager(dir workspace.Dir, scope model.Scope) *Manager {
	return &Manager{dir: dir, scope: scope}
}

// Scope returns the scope this manager serves.
func (m *Manager) Scope() model.Scope { return m.scope }

// Initialize ensures the log directory exists and writes an empty
// snapshot if none is present. Idempotent.
func (m *Manager) Initialize() error {
	if err := os.MkdirAll(m.dir.LogDir(), 0o755); err != nil {
		return fmt.Errorf("index: create log dir: %w", err)
	}
	if _, err := os.Stat(m.dir.IndexPath()); err == nil {
		return nil
	}
	return m.writeSnapshot(model.NewIndex(m.scope))
}

// ReadIndex reads the snapshot, replaying all pending log files on top of
// it when includeLogs is true. A missing snapshot yields an empty index; a
// snapshot that fails to parse is treated the same way, with a warning,
// mirroring the tolerance extended to individual log files.
func (m *Manager) ReadIndex(includeLogs bool) (*model.Index, error) {
	ix := m.readSnapshot()
	if !includeLogs {
		return ix, nil
	}

	names, err := m.logFileNames()
	if err != nil {
		return nil, err
	}
	if m.replayLogs(ix, names) > 0 {
		ix.LastUpdated = time.Now()
	}
	return ix, nil
}

// AddMemory appends an add operation. Id collisions are not checked at
// append time; the merge resolves them by last-writer-wins at read time.
func (m *Manager) AddMemory(entry model.MemoryEntry, sessionID string) error {
	return m.appendLog(model.LogEntry{
		Operation: model.OpAdd,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Memory:    &entry,
	})
}

// UpdateMemory appends an update operation for the given id. The replay
// only applies it if the target already exists in the merged view, so an
// update can never fabricate an entry.
func (m *Manager) UpdateMemory(id string, entry model.MemoryEntry, sessionID string) error {
	return m.appendLog(model.LogEntry{
		Operation: model.OpUpdate,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Memory:    &entry,
		MemoryID:  id,
	})
}

// DeleteMemory appends a delete operation. Deleting an id that was never
// added is a no-op at merge time.
func (m *Manager) DeleteMemory(id string, sessionID string) error {
	return m.appendLog(model.LogEntry{
		Operation: model.OpDelete,
		Timestamp: time.Now(),
		SessionID: sessionID,
		MemoryID:  id,
	})
}

// RebuildIndex folds all pending log files into a new snapshot and then
// removes exactly the log files it read. Log files appended while the
// rebuild runs survive and replay again on the next read; replaying an
// operation twice is safe because operations are idempotent by id.
// Returns ErrRebuildLocked when another process holds a fresh rebuild
// lock.
func (m *Manager) RebuildIndex() error {
	lock, err := acquireRebuildLock(m.dir)
	if err != nil {
		return err
	}
	defer lock.release()

	ix := m.readSnapshot()
	names, err := m.logFileNames()
	if err != nil {
		return err
	}
	m.replayLogs(ix, names)

	ix.LastUpdated = time.Now()
	ix.Stats = computeStats(ix)
	if err := m.writeSnapshot(ix); err != nil {
		return err
	}

	for _, name := range names {
		if err := os.Remove(filepath.Join(m.dir.LogDir(), name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("index: clear log %s: %w", name, err)
		}
	}
	return nil
}

// ShouldRebuild reports whether the pending log-file count has reached
// threshold. Advisory only; callers decide when to compact.
func (m *Manager) ShouldRebuild(threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultRebuildThreshold
	}
	names, err := m.logFileNames()
	if err != nil {
		return false
	}
	return len(names) >= threshold
}

// PendingLogs returns the number of log files awaiting compaction.
func (m *Manager) PendingLogs() int {
	names, err := m.logFileNames()
	if err != nil {
		return 0
	}
	return len(names)
}

func (m *Manager) readSnapshot() *model.Index {
	ix := model.NewIndex(m.scope)
	if _, err := fsjson.Read(m.dir.IndexPath(), ix); err != nil {
		slog.Warn("index: snapshot unreadable, starting from empty index",
			"path", m.dir.IndexPath(), "err", err)
		return model.NewIndex(m.scope)
	}
	if ix.Memories == nil {
		ix.Memories = map[string]model.MemoryEntry{}
	}
	return ix
}

func (m *Manager) writeSnapshot(ix *model.Index) error {
	ix.Version = model.IndexVersion
	ix.Checksum = ""
	sum, err := fsjson.Checksum(ix)
	if err != nil {
		return fmt.Errorf("index: checksum: %w", err)
	}
	ix.Checksum = sum
	return fsjson.Write(m.dir.IndexPath(), ix)
}

// logFileNames lists pending log files in deterministic replay order:
// lexicographic by filename, which embeds a microsecond timestamp
// followed by the originating session id.
func (m *Manager) logFileNames() ([]string, error) {
	entries, err := os.ReadDir(m.dir.LogDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: list log dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// replayLogs applies the named log files to the index mapping in order,
// skipping files that fail to parse. One corrupt log entry must not block
// visibility of all others. Returns the number of entries applied.
func (m *Manager) replayLogs(ix *model.Index, names []string) int {
	applied := 0
	for _, name := range names {
		path := filepath.Join(m.dir.LogDir(), name)
		var entry model.LogEntry
		found, err := fsjson.Read(path, &entry)
		if err != nil || !found {
			slog.Warn("index: skipping unreadable log file", "path", path, "err", err)
			continue
		}
		m.applyLogEntry(ix, entry)
		applied++
	}
	return applied
}

func (m *Manager) applyLogEntry(ix *model.Index, entry model.LogEntry) {
	switch entry.Operation {
	case model.OpAdd:
		if entry.Memory != nil {
			ix.Memories[entry.Memory.ID] = *entry.Memory
		}
	case model.OpUpdate:
		if entry.Memory == nil {
			return
		}
		// The write lands at Memory.ID, so that id must already exist:
		// an update can never fabricate an entry.
		if _, ok := ix.Memories[entry.Memory.ID]; ok {
			ix.Memories[entry.Memory.ID] = *entry.Memory
		}
	case model.OpDelete:
		delete(ix.Memories, entry.MemoryID)
	}
}

func (m *Manager) appendLog(entry model.LogEntry) error {
	now := entry.Timestamp
	session := sanitizeSessionID(entry.SessionID)

	// Distinct writers can never collide (the session id is in the name),
	// but one writer appending twice within the same microsecond would.
	// Nudge the timestamp forward until the name is free.
	for {
		stamp := now.Format("20060102150405") + fmt.Sprintf("%06d", now.Nanosecond()/1000)
		path := filepath.Join(m.dir.LogDir(), stamp+"-"+session+".json")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fsjson.Write(path, entry)
		}
		now = now.Add(time.Microsecond)
	}
}

// sanitizeSessionID keeps log filenames safe when a caller hands in an
// unusual session id.
func sanitizeSessionID(id string) string {
	if id == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		}
		return r
	}, id)
}
