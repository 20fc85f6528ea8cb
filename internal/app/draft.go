package app

import (
	"strings"

	"github.com/evanschultz/tix/internal/domain"
)

// Draft holds the editable fields of the edit/create form.
type Draft struct {
	Title       string
	Description string
	Status      domain.Status
	Priority    int
	Type        string
}

// DraftFromTask seeds a draft with a task's current editable fields.
func DraftFromTask(task domain.Task) Draft {
	return Draft{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Type:        task.Type,
	}
}

// BuildUpdate diffs a draft against its baseline task and returns the minimal
// patch. Titles are compared trimmed. An unchanged draft yields an empty
// patch, which UpdateTask treats as a no-op.
func BuildUpdate(base domain.Task, draft Draft) Patch {
	var patch Patch
	if title := strings.TrimSpace(draft.Title); title != strings.TrimSpace(base.Title) {
		patch.Title = &title
	}
	if draft.Description != base.Description {
		description := draft.Description
		patch.Description = &description
	}
	if draft.Status != base.Status {
		status := draft.Status
		patch.Status = &status
	}
	if draft.Priority != base.Priority {
		priority := draft.Priority
		patch.Priority = &priority
	}
	if draft.Type != base.Type {
		taskType := draft.Type
		patch.Type = &taskType
	}
	return patch
}
