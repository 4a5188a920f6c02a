package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memory",
		Long:  "Search titles, summaries, keywords, and triggers across the merged index.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("scope", "both", "Search scope: global, project, or both")
	cmd.Flags().StringP("tags", "t", "", "Filter by tags (comma-separated)")
	cmd.Flags().String("type", "", "Filter by memory type")
	cmd.Flags().IntP("limit", "l", 10, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	scopeStr, _ := cmd.Flags().GetString("scope")
	tagsStr, _ := cmd.Flags().GetString("tags")
	typeStr, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	scope, err := parseScope(scopeStr)
	if err != nil {
		exitErr("search", err)
	}
	memType := model.MemoryType(typeStr)
	if typeStr != "" && !model.ValidTypes[memType] {
		exitErr("search", fmt.Errorf("invalid type %q", typeStr))
	}

	mgr, err := openManager()
	if err != nil {
		exitErr("search", err)
	}

	results, err := mgr.Search(model.SearchParams{
		Query: query,
		Tags:  parseTags(tagsStr),
		Type:  memType,
	}, scope)
	if err != nil {
		exitErr("search", err)
	}

	if len(results) > limit {
		results = results[:limit]
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(b))
		return
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, m := range results {
		fmt.Printf("%d. [%s] %s\n", i+1, m.Scope, m.Title)
		fmt.Printf("   id: %s\n", m.ID)
		fmt.Printf("   type: %s\n", m.Type)
		fmt.Printf("   created: %s\n", m.Created.Format("2006-01-02"))
		if len(m.Tags) > 0 {
			fmt.Printf("   tags: %s\n", strings.Join(m.Tags, ", "))
		}
		if m.Summary != "" {
			summary := m.Summary
			if len(summary) > 100 {
				summary = summary[:100] + "..."
			}
			fmt.Printf("   summary: %s\n", summary)
		}
		fmt.Println()
	}
}
