package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/memory"
	"github.com/devkeep/devkeep/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [description]",
		Short: "Assemble relevant memories for a task",
		Long:  "Search and score memories, then greedily pack them into a token budget.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runContext,
	}

	cmd.Flags().String("scope", "both", "Search scope: global, project, or both")
	cmd.Flags().StringP("tags", "t", "", "Filter by tags (comma-separated)")
	cmd.Flags().String("type", "", "Filter by memory type")
	cmd.Flags().IntP("budget", "b", 4000, "Max tokens in output")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	scopeStr, _ := cmd.Flags().GetString("scope")
	tagsStr, _ := cmd.Flags().GetString("tags")
	typeStr, _ := cmd.Flags().GetString("type")
	budget, _ := cmd.Flags().GetInt("budget")
	query := strings.Join(args, " ")

	scope, err := parseScope(scopeStr)
	if err != nil {
		exitErr("context", err)
	}

	mgr, err := openManager()
	if err != nil {
		exitErr("context", err)
	}

	result, err := mgr.AssembleContext(memory.ContextParams{
		Query:  query,
		Tags:   parseTags(tagsStr),
		Type:   model.MemoryType(typeStr),
		Scope:  scope,
		Budget: budget,
	})
	if err != nil {
		exitErr("context", err)
	}

	b, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(b))
}
