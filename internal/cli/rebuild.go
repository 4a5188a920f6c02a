package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/index"
	"github.com/devkeep/devkeep/internal/manifest"
	"github.com/devkeep/devkeep/internal/memory"
	"github.com/devkeep/devkeep/internal/model"
)

func init() {
	rebuildIndex := &cobra.Command{
		Use:   "rebuild-index",
		Short: "Compact the index",
		Long:  "Replay pending log entries into the snapshot and delete the logs that were merged.",
		Run:   runRebuildIndex,
	}
	rebuildIndex.Flags().String("scope", "project", "Which index to rebuild: global or project")

	rebuildManifest := &cobra.Command{
		Use:   "rebuild-manifest",
		Short: "Regenerate the manifest",
		Long:  "Rebuild the lightweight manifest from the merged index.",
		Run:   runRebuildManifest,
	}
	rebuildManifest.Flags().String("scope", "both", "Which manifest to rebuild: global, project, or both")

	RootCmd.AddCommand(rebuildIndex, rebuildManifest)
}

func runRebuildIndex(cmd *cobra.Command, args []string) {
	scopeStr, _ := cmd.Flags().GetString("scope")
	if scopeStr != "global" && scopeStr != "project" {
		exitErr("rebuild-index", fmt.Errorf("invalid scope %q (want global or project)", scopeStr))
	}
	scope := model.Scope(scopeStr)

	mgr, err := openManager()
	if err != nil {
		exitErr("rebuild-index", err)
	}

	ix, err := mgr.Index(scope)
	if err != nil {
		if errors.Is(err, memory.ErrNoProjectScope) {
			fmt.Println("not in a project")
			return
		}
		exitErr("rebuild-index", err)
	}

	if err := ix.RebuildIndex(); err != nil {
		if errors.Is(err, index.ErrRebuildLocked) {
			fmt.Println("rebuild already in progress, try again later")
			return
		}
		exitErr("rebuild-index", err)
	}
	fmt.Printf("rebuilt %s index\n", scope)
}

func runRebuildManifest(cmd *cobra.Command, args []string) {
	scopeStr, _ := cmd.Flags().GetString("scope")
	if _, err := parseScope(scopeStr); err != nil {
		exitErr("rebuild-manifest", err)
	}

	mgr, err := openManager()
	if err != nil {
		exitErr("rebuild-manifest", err)
	}

	scopes := []model.Scope{}
	if scopeStr == "global" || scopeStr == "both" {
		scopes = append(scopes, model.ScopeGlobal)
	}
	if scopeStr == "project" || scopeStr == "both" {
		scopes = append(scopes, model.ScopeProject)
	}

	for _, scope := range scopes {
		dir, err := mgr.ScopeDir(scope)
		if err != nil {
			if errors.Is(err, memory.ErrNoProjectScope) {
				fmt.Println("not in a project")
				continue
			}
			exitErr("rebuild-manifest", err)
		}
		ix, err := readScope(mgr, scope)
		if err != nil {
			exitErr("rebuild-manifest", err)
		}
		if err := manifest.NewGenerator(dir).Rebuild(ix); err != nil {
			exitErr("rebuild-manifest", err)
		}
		fmt.Printf("rebuilt %s manifest (%d memories)\n", scope, len(ix.Memories))
	}
}
