package session

import (
	"fmt"
	"strings"

	"github.com/devkeep/devkeep/internal/model"
)

// Markdown renders a session as the markdown document archived alongside
// the index entry when the session is saved to memory.
func Markdown(s *model.SessionData) string {
	var b strings.Builder

	task := s.Task
	if task == "" {
		task = "Not specified"
	}
	fmt.Fprintf(&b, "# Session: %s\n", s.SessionID)
	fmt.Fprintf(&b, "**Started**: %s\n", s.Started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Last Updated**: %s\n", s.LastUpdated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Task**: %s\n", task)
	fmt.Fprintf(&b, "**Status**: %s\n", s.Status)

	b.WriteString("\n## Files Modified\n")
	writeList(&b, s.FilesModified)

	b.WriteString("\n## Decisions Made\n")
	if len(s.Decisions) == 0 {
		b.WriteString("- None\n")
	}
	for _, d := range s.Decisions {
		fmt.Fprintf(&b, "\n### %s\n", d.Decision)
		fmt.Fprintf(&b, "**Rationale**: %s\n", d.Rationale)
		if len(d.Alternatives) > 0 {
			b.WriteString("**Alternatives considered**:\n")
			for _, alt := range d.Alternatives {
				fmt.Fprintf(&b, "- %s\n", alt)
			}
		}
	}

	b.WriteString("\n## Problems Encountered\n")
	if len(s.Problems) == 0 {
		b.WriteString("- None\n")
	}
	for _, p := range s.Problems {
		fmt.Fprintf(&b, "\n### %s\n", p.Problem)
		if p.Solution != "" {
			fmt.Fprintf(&b, "**Solution**: %s\n", p.Solution)
		}
	}

	b.WriteString("\n## Notes\n")
	writeList(&b, s.Notes)

	b.WriteString("\n## TODOs\n")
	if len(s.Todos) == 0 {
		b.WriteString("- None\n")
	}
	for _, todo := range s.Todos {
		fmt.Fprintf(&b, "- [ ] %s\n", todo)
	}

	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- None\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
