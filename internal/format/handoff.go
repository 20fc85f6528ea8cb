package format

import (
	"fmt"
	"strings"

	"github.com/evanschultz/tix/internal/domain"
)

// Reference serializes a task into the single-line tagged string pasted into
// an external text sink.
func Reference(task domain.Task) string {
	priority := "unknown"
	if domain.ValidPriority(task.Priority) {
		priority = fmt.Sprintf("%d", task.Priority)
	}
	taskType := strings.TrimSpace(task.Type)
	if taskType == "" {
		taskType = domain.DefaultTaskType
	}
	ref := fmt.Sprintf("task(id=%s, title=\"%s\", status=%s, priority=%s, type=%s",
		task.ID, strings.TrimSpace(task.Title), task.Status, priority, taskType)
	if desc := strings.TrimSpace(task.Description); desc != "" {
		escaped := strings.ReplaceAll(desc, "\n", `\n`)
		ref += fmt.Sprintf(", description=\"%s\"", escaped)
	}
	return ref + ")"
}

// WorkPrompt renders the multi-line handoff block sent to an external message
// channel when the user picks a task to work on.
func WorkPrompt(task domain.Task) string {
	priority := "unknown"
	if domain.ValidPriority(task.Priority) {
		priority = fmt.Sprintf("%d", task.Priority)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Work on task %s: %s\n\n", task.ID, strings.TrimSpace(task.Title))
	fmt.Fprintf(&b, "Status: %s\n", task.Status)
	fmt.Fprintf(&b, "Priority: %s", priority)
	if desc := strings.TrimSpace(task.Description); desc != "" {
		b.WriteString("\n\nContext:\n")
		b.WriteString(desc)
	}
	return b.String()
}
