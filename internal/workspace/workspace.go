// Package workspace locates scope roots and lays out the on-disk store.
//
// Each scope root owns an independent index, log directory and session
// directories:
//
//	<scope-root>/
//	  memory/
//	    index.json
//	    index-log/<timestamp>-<session_id>.json
//	    manifest.json
//	    sessions/<date>-<task-slug>.md      (markdown content blobs)
//	  sessions/
//	    active/<session_id>.json
//	    archived/<date>-<task-slug>.json
//	  config.json
package workspace

import (
	"os"
	"path/filepath"
)

// projectMarkers identify a directory as a project root.
var projectMarkers = []string{
	".git",
	".devkeep",
	"package.json",
	"pyproject.toml",
	"Cargo.toml",
	"go.mod",
	"pom.xml",
}

// GlobalRoot returns the user-wide scope root, honoring the DEVKEEP_HOME
// override, defaulting to ~/.devkeep.
func GlobalRoot() string {
	if env := os.Getenv("DEVKEEP_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".devkeep")
}

// FindProjectRoot walks up from start looking for a project marker. It
// never treats the home directory or the filesystem root as a project.
func FindProjectRoot(start string) (string, bool) {
	current, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	home, _ := os.UserHomeDir()

	for {
		if current == home {
			return "", false
		}
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current, true
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// ProjectRoot returns the project scope root for the project containing
// start, if start is inside a project.
func ProjectRoot(start string) (string, bool) {
	root, ok := FindProjectRoot(start)
	if !ok {
		return "", false
	}
	return filepath.Join(root, ".devkeep"), true
}

// Dir is the layout of one scope root.
type Dir struct {
	Root string
}

func (d Dir) MemoryDir() string           { return filepath.Join(d.Root, "memory") }
func (d Dir) IndexPath() string           { return filepath.Join(d.Root, "memory", "index.json") }
func (d Dir) LogDir() string              { return filepath.Join(d.Root, "memory", "index-log") }
func (d Dir) ManifestPath() string        { return filepath.Join(d.Root, "memory", "manifest.json") }
func (d Dir) MemorySessionsDir() string   { return filepath.Join(d.Root, "memory", "sessions") }
func (d Dir) ActiveSessionsDir() string   { return filepath.Join(d.Root, "sessions", "active") }
func (d Dir) ArchivedSessionsDir() string { return filepath.Join(d.Root, "sessions", "archived") }
func (d Dir) ConfigPath() string          { return filepath.Join(d.Root, "config.json") }
