// Package cli implements the devkeep CLI commands.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/memory"
	"github.com/devkeep/devkeep/internal/model"
)

var formatFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "devkeep",
	Short: "Persistent local memory for coding sessions",
	Long:  "A local knowledge store for coding sessions. Append-log JSON index, session tracking, plain files on disk.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text or json")
}

func openManager() (*memory.Manager, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return memory.New(cwd)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func parseTags(tagsStr string) []string {
	var tags []string
	for _, t := range strings.Split(tagsStr, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseScope maps a --scope flag value to a scope filter. Empty and
// "both" mean no filter.
func parseScope(s string) (model.Scope, error) {
	switch s {
	case "", "both":
		return "", nil
	case "global":
		return model.ScopeGlobal, nil
	case "project":
		return model.ScopeProject, nil
	default:
		return "", fmt.Errorf("invalid scope %q (want global, project, or both)", s)
	}
}
