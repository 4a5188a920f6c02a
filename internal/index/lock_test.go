package index

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devkeep/devkeep/internal/workspace"
)

func TestRebuildBlockedByFreshLock(t *testing.T) {
	m := newTestManager(t)
	m.AddMemory(entry("m1", time.Now()), "s")

	lock, err := acquireRebuildLock(m.dir)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lock.release()

	if err := m.RebuildIndex(); !errors.Is(err, ErrRebuildLocked) {
		t.Errorf("expected ErrRebuildLocked, got %v", err)
	}

	// The blocked rebuild must leave the pending logs alone.
	if got := logCount(t, m); got != 1 {
		t.Errorf("expected 1 pending log, got %d", got)
	}
}

func TestStaleLockIsBroken(t *testing.T) {
	m := newTestManager(t)
	m.AddMemory(entry("m1", time.Now()), "s")

	path := filepath.Join(m.dir.MemoryDir(), "rebuild.lock")
	stale := lockInfo{Owner: "dead-process", PID: 1, AcquiredAt: time.Now().Add(-time.Hour)}
	b, _ := json.Marshal(stale)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.RebuildIndex(); err != nil {
		t.Fatalf("rebuild should break a stale lock: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file should be gone after rebuild")
	}
}

func TestReleaseLeavesForeignLock(t *testing.T) {
	dir := workspace.Dir{Root: t.TempDir()}
	lock, err := acquireRebuildLock(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Simulate the lock being broken and re-acquired by someone else.
	foreign := lockInfo{Owner: "other", PID: 2, AcquiredAt: time.Now()}
	b, _ := json.Marshal(foreign)
	if err := os.WriteFile(lock.path, b, 0o644); err != nil {
		t.Fatal(err)
	}

	lock.release()
	if _, err := os.Stat(lock.path); err != nil {
		t.Error("release must not remove a lock it no longer owns")
	}
}
