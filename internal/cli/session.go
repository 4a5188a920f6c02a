package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/memory"
	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/session"
	"github.com/devkeep/devkeep/internal/workspace"
)

func init() {
	start := &cobra.Command{
		Use:   "start-session [task]",
		Short: "Start a new session",
		Run:   runStartSession,
	}

	save := &cobra.Command{
		Use:   "save-session",
		Short: "Save a session to long-term memory",
		Long:  "Write the session as a markdown blob, index it, and archive the session file.",
		Run:   runSaveSession,
	}
	save.Flags().String("session-id", "", "Session ID (uses most recent if not provided)")
	save.Flags().String("scope", "", "Save to global or project scope (auto-selected if omitted)")
	save.Flags().String("type", "session", "Memory type: session, decision, implementation, pattern")
	save.Flags().StringP("tags", "t", "", "Comma-separated tags")
	save.Flags().String("summary", "", "Session summary")

	list := &cobra.Command{
		Use:   "list-sessions",
		Short: "List active sessions",
		Run:   runListSessions,
	}

	cleanup := &cobra.Command{
		Use:   "cleanup-sessions",
		Short: "Find and optionally archive stale sessions",
		Run:   runCleanupSessions,
	}
	cleanup.Flags().Int("hours", 0, "Hours of inactivity threshold (default from config)")
	cleanup.Flags().Bool("auto-archive", false, "Archive stale sessions instead of only listing them")

	RootCmd.AddCommand(start, save, list, cleanup)
}

func runStartSession(cmd *cobra.Command, args []string) {
	mgr, err := openManager()
	if err != nil {
		exitErr("start-session", err)
	}

	tr, err := session.Open(mgr.SessionDir(), "")
	if err != nil {
		exitErr("start-session", err)
	}

	if len(args) > 0 {
		if err := tr.UpdateTask(args[0]); err != nil {
			exitErr("start-session", err)
		}
	}

	fmt.Printf("started session: %s\n", tr.Data.SessionID)
	if tr.Data.Task != "" {
		fmt.Printf("  task: %s\n", tr.Data.Task)
	}
}

func runSaveSession(cmd *cobra.Command, args []string) {
	sessionID, _ := cmd.Flags().GetString("session-id")
	scopeStr, _ := cmd.Flags().GetString("scope")
	typeStr, _ := cmd.Flags().GetString("type")
	tagsStr, _ := cmd.Flags().GetString("tags")
	summary, _ := cmd.Flags().GetString("summary")

	mgr, err := openManager()
	if err != nil {
		exitErr("save-session", err)
	}

	tr, err := findSession(mgr, sessionID)
	if err != nil {
		exitErr("save-session", err)
	}

	scope := model.Scope(scopeStr)
	if scopeStr == "" {
		if _, ok := mgr.ProjectDir(); ok {
			scope = model.ScopeProject
		} else {
			scope = model.ScopeGlobal
		}
		fmt.Printf("auto-selected scope: %s\n", scope)
	} else if !model.ValidScopes[scope] {
		exitErr("save-session", fmt.Errorf("invalid scope %q", scopeStr))
	}

	memType := model.MemoryType(typeStr)
	if !model.ValidTypes[memType] {
		exitErr("save-session", fmt.Errorf("invalid type %q", typeStr))
	}

	entry, err := mgr.SaveSession(tr, memory.SaveSessionParams{
		Scope:   scope,
		Type:    memType,
		Tags:    parseTags(tagsStr),
		Summary: summary,
	})
	if err != nil {
		exitErr("save-session", err)
	}

	fmt.Printf("saved session to %s memory\n", scope)
	fmt.Printf("  memory id: %s\n", entry.ID)
	fmt.Printf("  title: %s\n", entry.Title)
	fmt.Printf("  file: %s\n", entry.File)

	if _, err := tr.Archive(""); err != nil {
		exitErr("save-session", err)
	}
	fmt.Printf("archived session: %s\n", tr.Data.SessionID)
}

// findSession loads the named session, or the most recently updated
// active one when no id is given.
func findSession(mgr *memory.Manager, sessionID string) (*session.Tracker, error) {
	dir := mgr.SessionDir()
	if sessionID != "" {
		return session.Open(dir, sessionID)
	}

	active := session.ListActive(dir)
	if len(active) == 0 {
		return nil, fmt.Errorf("no active sessions found")
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].LastUpdated.After(active[j].LastUpdated)
	})
	return session.Open(dir, active[0].SessionID)
}

func runListSessions(cmd *cobra.Command, args []string) {
	mgr, err := openManager()
	if err != nil {
		exitErr("list-sessions", err)
	}

	found := false
	printSessions := func(label string, dir workspace.Dir) {
		sessions := session.ListActive(dir)
		if len(sessions) == 0 {
			return
		}
		found = true
		fmt.Printf("%s sessions:\n", label)
		for _, s := range sessions {
			task := s.Task
			if task == "" {
				task = "N/A"
			}
			fmt.Printf("  - %s\n", s.SessionID)
			fmt.Printf("    task: %s\n", task)
			fmt.Printf("    started: %s\n\n", s.Started.Format("2006-01-02 15:04"))
		}
	}

	projectDir, inProject := mgr.ProjectDir()
	if !inProject || mgr.Config().Sessions.ShowGlobal {
		printSessions("global", mgr.GlobalDir())
	}
	if inProject {
		printSessions("project", projectDir)
	}

	if !found {
		fmt.Println("No active sessions.")
	}
}

func runCleanupSessions(cmd *cobra.Command, args []string) {
	hours, _ := cmd.Flags().GetInt("hours")
	autoArchive, _ := cmd.Flags().GetBool("auto-archive")

	mgr, err := openManager()
	if err != nil {
		exitErr("cleanup-sessions", err)
	}
	if hours <= 0 {
		hours = mgr.Config().Sessions.StaleHours
	}

	dirs := []workspace.Dir{mgr.GlobalDir()}
	if projectDir, ok := mgr.ProjectDir(); ok {
		dirs = append(dirs, projectDir)
	}

	for _, dir := range dirs {
		stale := session.StaleSessionIDs(dir, hours)
		if len(stale) == 0 {
			continue
		}

		fmt.Printf("found %d stale sessions in %s:\n", len(stale), dir.Root)
		for _, id := range stale {
			fmt.Printf("  - %s\n", id)
			if !autoArchive {
				continue
			}
			tr, err := session.Open(dir, id)
			if err != nil {
				exitErr("cleanup-sessions", err)
			}
			if _, err := tr.Archive(""); err != nil {
				exitErr("cleanup-sessions", err)
			}
			fmt.Println("    archived")
		}
	}
}
