package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show [memory-id]",
		Short: "Show a memory entry",
		Long:  "Print the full entry and record the access.",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	memoryID := args[0]

	mgr, err := openManager()
	if err != nil {
		exitErr("show", err)
	}

	entry, found, err := mgr.Get(memoryID)
	if err != nil {
		exitErr("show", err)
	}
	if !found {
		exitErr("show", fmt.Errorf("memory not found: %s", memoryID))
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(entry, "", "  ")
		fmt.Println(string(b))
	} else {
		fmt.Printf("Title: %s\n", entry.Title)
		fmt.Printf("ID: %s\n", entry.ID)
		fmt.Printf("Type: %s\n", entry.Type)
		fmt.Printf("Scope: %s\n", entry.Scope)
		fmt.Printf("Created: %s\n", entry.Created.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated: %s\n", entry.Updated.Format("2006-01-02 15:04:05"))
		fmt.Printf("Tags: %s\n", strings.Join(entry.Tags, ", "))
		if entry.Summary != "" {
			fmt.Printf("\nSummary:\n%s\n", entry.Summary)
		}
		fmt.Printf("\nKeywords: %s\n", strings.Join(entry.Keywords, ", "))
		fmt.Printf("Triggers: %s\n", strings.Join(entry.Triggers, ", "))

		if len(entry.FilesModified) > 0 {
			fmt.Println("\nFiles Modified:")
			for _, f := range entry.FilesModified {
				fmt.Printf("  - %s\n", f)
			}
		}
		if len(entry.Decisions) > 0 {
			fmt.Println("\nDecisions:")
			for _, d := range entry.Decisions {
				fmt.Printf("  - %s\n", d)
			}
		}

		fmt.Printf("\nAccess Count: %d\n", entry.Access.Count)
		if entry.Access.LastAccessed != nil {
			fmt.Printf("Last Accessed: %s\n", entry.Access.LastAccessed.Format("2006-01-02 15:04:05"))
		}
	}

	if err := mgr.RecordAccess(memoryID, ""); err != nil {
		exitErr("show", err)
	}
}
