package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/manifest"
	"github.com/devkeep/devkeep/internal/memory"
)

func init() {
	root := &cobra.Command{
		Use:   "manifest",
		Short: "Query the lightweight manifest",
		Long:  "Read the manifest instead of the full index. Cheap lookups without log replay.",
	}
	root.PersistentFlags().String("scope", "project", "Manifest scope: global or project")

	info := &cobra.Command{
		Use:   "info [memory-id]",
		Short: "Show one manifest entry",
		Args:  cobra.ExactArgs(1),
		Run:   runManifestInfo,
	}

	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Search manifest titles and summaries",
		Args:  cobra.MinimumNArgs(1),
		Run:   runManifestSearch,
	}
	search.Flags().StringP("tags", "t", "", "Filter by tags (comma-separated)")

	root.AddCommand(info, search)
	RootCmd.AddCommand(root)
}

func openGenerator(cmd *cobra.Command) *manifest.Generator {
	scopeStr, _ := cmd.Flags().GetString("scope")
	scope, err := parseScope(scopeStr)
	if err != nil || scope == "" {
		exitErr("manifest", fmt.Errorf("invalid scope %q (want global or project)", scopeStr))
	}

	mgr, err := openManager()
	if err != nil {
		exitErr("manifest", err)
	}
	dir, err := mgr.ScopeDir(scope)
	if err != nil {
		if errors.Is(err, memory.ErrNoProjectScope) {
			exitErr("manifest", fmt.Errorf("not in a project"))
		}
		exitErr("manifest", err)
	}
	return manifest.NewGenerator(dir)
}

func runManifestInfo(cmd *cobra.Command, args []string) {
	gen := openGenerator(cmd)

	entry, found := gen.Info(args[0])
	if !found {
		exitErr("manifest", fmt.Errorf("memory not found: %s", args[0]))
	}

	b, _ := json.MarshalIndent(entry, "", "  ")
	fmt.Println(string(b))
}

func runManifestSearch(cmd *cobra.Command, args []string) {
	tagsStr, _ := cmd.Flags().GetString("tags")
	gen := openGenerator(cmd)

	results := gen.Search(strings.Join(args, " "), parseTags(tagsStr))
	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
