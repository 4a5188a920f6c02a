package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/memory"
	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	mgr, err := openManager()
	if err != nil {
		exitErr("stats", err)
	}

	scopes := []model.Scope{model.ScopeGlobal}
	if _, ok := mgr.ProjectDir(); ok {
		scopes = append(scopes, model.ScopeProject)
	}

	if formatFlag == "json" {
		out := map[string]model.IndexStats{}
		for _, scope := range scopes {
			ix, err := readScope(mgr, scope)
			if err != nil {
				exitErr("stats", err)
			}
			out[string(scope)] = ix.Stats
		}
		b, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(b))
		return
	}

	for i, scope := range scopes {
		if i > 0 {
			fmt.Println()
		}
		ix, err := readScope(mgr, scope)
		if err != nil {
			exitErr("stats", err)
		}

		totalAccesses := 0
		for _, m := range ix.Memories {
			totalAccesses += m.Access.Count
		}

		dir, err := mgr.ScopeDir(scope)
		if err != nil {
			exitErr("stats", err)
		}

		fmt.Printf("%s memory:\n", scope)
		fmt.Printf("  total memories: %d\n", len(ix.Memories))
		fmt.Printf("  total accesses: %d\n", totalAccesses)
		fmt.Printf("  active sessions: %d\n", len(session.ListActive(dir)))
		fmt.Printf("  pending log entries: %d\n", pendingLogs(mgr, scope))
		if info, err := os.Stat(dir.IndexPath()); err == nil {
			fmt.Printf("  index size: %s\n", humanize.Bytes(uint64(info.Size())))
		}

		if len(ix.Stats.ByType) > 0 {
			fmt.Println("  by type:")
			types := make([]string, 0, len(ix.Stats.ByType))
			for t := range ix.Stats.ByType {
				types = append(types, t)
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Printf("    %s: %d\n", t, ix.Stats.ByType[t])
			}
		}
	}
}

func readScope(mgr *memory.Manager, scope model.Scope) (*model.Index, error) {
	ix, err := mgr.Index(scope)
	if err != nil {
		return nil, err
	}
	return ix.ReadIndex(true)
}

func pendingLogs(mgr *memory.Manager, scope model.Scope) int {
	ix, err := mgr.Index(scope)
	if err != nil {
		return 0
	}
	return ix.PendingLogs()
}
