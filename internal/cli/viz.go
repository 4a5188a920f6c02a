package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devkeep/devkeep/internal/model"
	"github.com/devkeep/devkeep/internal/viz"
)

func init() {
	timeline := &cobra.Command{
		Use:   "timeline",
		Short: "Show memories grouped by month",
		Run:   runTimeline,
	}
	timeline.Flags().String("scope", "both", "Filter by scope: global, project, or both")
	timeline.Flags().String("type", "", "Filter by memory type")
	timeline.Flags().Int("days", 0, "Only show memories created in the last N days")
	timeline.Flags().Int("min-accesses", 0, "Only show memories accessed at least N times")
	timeline.Flags().Bool("never-accessed", false, "Only show memories never accessed")

	tags := &cobra.Command{
		Use:   "tags",
		Short: "Show tag cloud and relationships",
		Run:   runTags,
	}
	tags.Flags().Int("min-count", 1, "Minimum tag occurrences to display")
	tags.Flags().String("scope", "both", "Filter by scope: global, project, or both")

	health := &cobra.Command{
		Use:   "health",
		Short: "Check store integrity and memory quality",
		Run:   runHealth,
	}

	RootCmd.AddCommand(timeline, tags, health)
}

func loadMemories(scopeStr string) []model.MemoryEntry {
	scope, err := parseScope(scopeStr)
	if err != nil {
		exitErr("viz", err)
	}
	mgr, err := openManager()
	if err != nil {
		exitErr("viz", err)
	}
	memories, err := mgr.Search(model.SearchParams{}, scope)
	if err != nil {
		exitErr("viz", err)
	}
	return memories
}

func runTimeline(cmd *cobra.Command, args []string) {
	scopeStr, _ := cmd.Flags().GetString("scope")
	typeStr, _ := cmd.Flags().GetString("type")
	days, _ := cmd.Flags().GetInt("days")
	minAccesses, _ := cmd.Flags().GetInt("min-accesses")
	neverAccessed, _ := cmd.Flags().GetBool("never-accessed")

	memories := loadMemories(scopeStr)

	fmt.Print(viz.Timeline(memories, viz.TimelineParams{
		Type:          model.MemoryType(typeStr),
		Days:          days,
		MinAccesses:   minAccesses,
		NeverAccessed: neverAccessed,
		Now:           time.Now(),
	}))
}

func runTags(cmd *cobra.Command, args []string) {
	minCount, _ := cmd.Flags().GetInt("min-count")
	scopeStr, _ := cmd.Flags().GetString("scope")

	memories := loadMemories(scopeStr)
	fmt.Print(viz.TagCloud(memories, minCount))
}

func runHealth(cmd *cobra.Command, args []string) {
	mgr, err := openManager()
	if err != nil {
		exitErr("health", err)
	}
	memories, err := mgr.Search(model.SearchParams{}, "")
	if err != nil {
		exitErr("health", err)
	}
	fmt.Print(viz.HealthReport(mgr, memories, time.Now()))
}
