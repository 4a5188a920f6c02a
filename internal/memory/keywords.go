package memory

import (
	"sort"
	"strings"

	"github.com/devkeep/devkeep/internal/model"
)

const maxKeywords = 20

// triggerVocabulary are task words worth turning into lazy-load triggers.
var triggerVocabulary = []string{
	"python", "javascript", "typescript", "react", "vue",
	"django", "flask", "fastapi", "auth", "database", "api",
}

// extractKeywords mines a session for search keywords: task and decision
// words, file extensions, and directory names. Deduplicated, short tokens
// dropped, capped at maxKeywords.
func extractKeywords(data *model.SessionData) []string {
	seen := map[string]bool{}
	var keywords []string
	add := func(word string) {
		word = strings.ToLower(strings.TrimSpace(word))
		if len(word) <= 2 || seen[word] {
			return
		}
		seen[word] = true
		keywords = append(keywords, word)
	}

	for _, w := range strings.Fields(data.Task) {
		add(w)
	}
	for _, d := range data.Decisions {
		for _, w := range strings.Fields(d.Decision) {
			add(w)
		}
	}
	for _, path := range data.FilesModified {
		if ext := fileExt(path); ext != "" {
			add(ext)
		}
		parts := strings.Split(path, "/")
		for _, dir := range parts[:len(parts)-1] {
			add(dir)
		}
	}

	sort.Strings(keywords)
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// extractTriggers builds lazy-load triggers: the tags themselves, the
// extensions of modified files (dot-prefixed), and known framework or
// language words appearing in the task.
func extractTriggers(data *model.SessionData, tags []string) []string {
	seen := map[string]bool{}
	var triggers []string
	add := func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		triggers = append(triggers, t)
	}

	for _, tag := range tags {
		add(tag)
	}
	for _, path := range data.FilesModified {
		if ext := fileExt(path); ext != "" {
			add("." + ext)
		}
	}
	taskLower := strings.ToLower(data.Task)
	for _, word := range triggerVocabulary {
		if strings.Contains(taskLower, word) {
			add(word)
		}
	}

	sort.Strings(triggers)
	return triggers
}

func fileExt(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 || i == len(path)-1 {
		return ""
	}
	return strings.ToLower(path[i+1:])
}
