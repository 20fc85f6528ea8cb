package app

import (
	"strings"

	"github.com/evanschultz/tix/internal/domain"
)

// MatchesFilter reports whether the lowercase term is a substring of the
// task's title, description, id, or status label. An empty term matches
// everything.
func MatchesFilter(task domain.Task, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{task.Title, task.Description, task.ID, task.Status.Label()} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// FilterTasks returns the tasks matching term, preserving order.
func FilterTasks(tasks []domain.Task, term string) []domain.Task {
	if strings.TrimSpace(term) == "" {
		return tasks
	}
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if MatchesFilter(task, term) {
			out = append(out, task)
		}
	}
	return out
}
