package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Long:  "Dump the merged index entries as a JSON array. Filter with --scope.",
		Run:   runExport,
	}

	cmd.Flags().String("scope", "both", "Export scope: global, project, or both")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	scopeStr, _ := cmd.Flags().GetString("scope")

	scope, err := parseScope(scopeStr)
	if err != nil {
		exitErr("export", err)
	}

	mgr, err := openManager()
	if err != nil {
		exitErr("export", err)
	}

	memories, err := mgr.Search(model.SearchParams{}, scope)
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}
