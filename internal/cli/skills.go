package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/skills"
)

func init() {
	cmd := &cobra.Command{
		Use:   "analyze-skills",
		Short: "Detect skill candidates from memory patterns",
		Long:  "Look for repeated procedures, decision patterns, and problem-solution pairs across memories.",
		Run:   runAnalyzeSkills,
	}

	cmd.Flags().String("scope", "both", "Scope to analyze: global, project, or both")
	cmd.Flags().Int("min-occurrences", 3, "Minimum pattern occurrences")
	cmd.Flags().Int("days", 90, "Look back this many days")
	cmd.Flags().Bool("flag", false, "Write skill candidate flags back to the index")

	RootCmd.AddCommand(cmd)
}

func runAnalyzeSkills(cmd *cobra.Command, args []string) {
	scopeStr, _ := cmd.Flags().GetString("scope")
	minOccurrences, _ := cmd.Flags().GetInt("min-occurrences")
	days, _ := cmd.Flags().GetInt("days")
	writeFlags, _ := cmd.Flags().GetBool("flag")

	scope, err := parseScope(scopeStr)
	if err != nil {
		exitErr("analyze-skills", err)
	}

	mgr, err := openManager()
	if err != nil {
		exitErr("analyze-skills", err)
	}

	memories, err := mgr.Search(model.SearchParams{}, scope)
	if err != nil {
		exitErr("analyze-skills", err)
	}
	if len(memories) == 0 {
		fmt.Println("No memories to analyze.")
		return
	}

	fmt.Printf("Analyzing %d memories...\n", len(memories))

	now := time.Now()
	candidates := skills.NewDetector(memories).Detect(now, minOccurrences, days)
	if len(candidates) == 0 {
		fmt.Println("No skill candidates detected.")
		return
	}

	fmt.Printf("\nFound %d skill candidates:\n\n", len(candidates))
	for _, c := range candidates {
		fmt.Printf("- %s\n", c.Name)
		fmt.Printf("  type: %s\n", c.Kind)
		fmt.Printf("  confidence: %s\n", c.Confidence)
		fmt.Printf("  occurrences: %d\n", c.Occurrences)
		fmt.Printf("  suggested name: %s\n\n", c.SkillName)
	}

	reportPath := filepath.Join(mgr.SessionDir().Root, "skill-candidates.md")
	if err := os.WriteFile(reportPath, []byte(skills.Report(candidates, now)), 0o644); err != nil {
		exitErr("analyze-skills", err)
	}
	fmt.Printf("full report saved to: %s\n", reportPath)

	if writeFlags {
		flagged := skills.Flag(memories, now, minOccurrences, days)
		for _, m := range flagged {
			if err := mgr.UpdateEntry(m, "skill-analysis"); err != nil {
				exitErr("analyze-skills", err)
			}
		}
		fmt.Printf("flagged %d memories as skill candidates\n", len(flagged))
	}
}
