package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/devkeep/devkeep/internal/workspace"
)

// ErrRebuildLocked is returned when another process holds a fresh rebuild
// lock. The caller's pending log files are untouched; they will be folded
// in by whoever holds the lock, or by a later rebuild.
var ErrRebuildLocked = errors.New("index: rebuild already in progress")

// lockStaleAfter is how old a lock file must be before another process may
// break it. Rebuilds finish in milliseconds; a lock this old belongs to a
// crashed process.
const lockStaleAfter = 5 * time.Minute

type lockInfo struct {
	Owner      string    `json:"owner"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

type rebuildLock struct {
	path  string
	owner string
}

// acquireRebuildLock takes the scope's exclusive rebuild lock via
// create-new file semantics. A stale lock left by a crashed process is
// broken with a warning.
func acquireRebuildLock(dir workspace.Dir) (*rebuildLock, error) {
	if err := os.MkdirAll(dir.MemoryDir(), 0o755); err != nil {
		return nil, fmt.Errorf("index: create memory dir: %w", err)
	}
	path := filepath.Join(dir.MemoryDir(), "rebuild.lock")
	owner := uuid.NewString()

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			info := lockInfo{Owner: owner, PID: os.Getpid(), AcquiredAt: time.Now()}
			b, _ := json.MarshalIndent(info, "", "  ")
			if _, werr := f.Write(b); werr != nil {
				f.Close()
				os.Remove(path)
				return nil, fmt.Errorf("index: write lock: %w", werr)
			}
			f.Close()
			return &rebuildLock{path: path, owner: owner}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("index: acquire lock: %w", err)
		}

		var held lockInfo
		if b, rerr := os.ReadFile(path); rerr == nil {
			_ = json.Unmarshal(b, &held)
		}
		if !held.AcquiredAt.IsZero() && time.Since(held.AcquiredAt) < lockStaleAfter {
			return nil, ErrRebuildLocked
		}

		slog.Warn("index: breaking stale rebuild lock",
			"path", path, "owner", held.Owner, "acquired_at", held.AcquiredAt)
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			return nil, fmt.Errorf("index: break stale lock: %w", rerr)
		}
	}
	return nil, ErrRebuildLocked
}

// release drops the lock if this process still owns it. A lock already
// broken by someone else is left alone.
func (l *rebuildLock) release() {
	var held lockInfo
	b, err := os.ReadFile(l.path)
	if err != nil {
		return
	}
	if json.Unmarshal(b, &held) == nil && held.Owner != l.owner {
		return
	}
	_ = os.Remove(l.path)
}
