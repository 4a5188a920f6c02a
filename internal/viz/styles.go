// Package viz renders terminal views over the memory store: timelines,
// tag analysis, and health reports.
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/devkeep/devkeep/internal/model"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	tagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	accessedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	scopeStyles = map[model.Scope]lipgloss.Style{
		model.ScopeGlobal:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		model.ScopeProject: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	}

	typeStyles = map[model.MemoryType]lipgloss.Style{
		model.TypeSession:        lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		model.TypeDecision:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		model.TypeImplementation: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		model.TypePattern:        lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
)

func formatScope(scope model.Scope) string {
	if style, ok := scopeStyles[scope]; ok {
		return style.Render(string(scope))
	}
	return string(scope)
}

func formatType(t model.MemoryType) string {
	if style, ok := typeStyles[t]; ok {
		return style.Render(string(t))
	}
	return string(t)
}

// formatAccessCount highlights frequently read entries.
func formatAccessCount(count int) string {
	switch {
	case count == 0:
		return mutedStyle.Render(fmt.Sprintf("%d×", count))
	case count >= 5:
		return accessedStyle.Bold(true).Render(fmt.Sprintf("%d× ⭐", count))
	default:
		return accessedStyle.Render(fmt.Sprintf("%d×", count))
	}
}

func formatTags(tags []string, max int) string {
	if len(tags) == 0 {
		return ""
	}
	shown := tags
	extra := ""
	if len(shown) > max {
		extra = fmt.Sprintf(" +%d", len(shown)-max)
		shown = shown[:max]
	}
	return tagStyle.Render("["+strings.Join(shown, ", ")+"]") + mutedStyle.Render(extra)
}

func formatRelative(now, t time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// progressBar draws value out of max as a fixed-width bar.
func progressBar(value, max, width int) string {
	if max <= 0 {
		max = 1
	}
	filled := value * width / max
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func header(title, subtitle string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	if subtitle != "" {
		b.WriteString(mutedStyle.Render(subtitle))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func section(title string) string {
	return sectionStyle.Render(title) + "\n"
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
