package format

import (
	"strings"
	"testing"

	"github.com/evanschultz/tix/internal/domain"
)

// TestReference verifies the serialized reference string shape.
func TestReference(t *testing.T) {
	got := Reference(domain.Task{ID: "proj-42", Title: "Fix login", Status: domain.StatusOpen, Priority: 1})
	want := `task(id=proj-42, title="Fix login", status=open, priority=1, type=task)`
	if got != want {
		t.Fatalf("reference = %q, want %q", got, want)
	}
}

// TestReferenceEscapesDescription verifies newline escaping in descriptions.
func TestReferenceEscapesDescription(t *testing.T) {
	got := Reference(domain.Task{
		ID:          "proj-1",
		Title:       "Multi",
		Status:      domain.StatusBlocked,
		Priority:    domain.PriorityUnknown,
		Type:        "bug",
		Description: "line one\nline two",
	})
	if !strings.Contains(got, `description="line one\nline two"`) {
		t.Fatalf("description not escaped: %q", got)
	}
	if !strings.Contains(got, "priority=unknown") {
		t.Fatalf("missing priority fallback: %q", got)
	}
}

// TestWorkPrompt verifies the multi-line handoff block.
func TestWorkPrompt(t *testing.T) {
	got := WorkPrompt(domain.Task{
		ID:          "proj-9",
		Title:       "Ship it",
		Status:      domain.StatusInProgress,
		Priority:    0,
		Description: "  do the thing  ",
	})
	want := "Work on task proj-9: Ship it\n\nStatus: in_progress\nPriority: 0\n\nContext:\ndo the thing"
	if got != want {
		t.Fatalf("work prompt = %q, want %q", got, want)
	}

	bare := WorkPrompt(domain.Task{ID: "proj-10", Title: "No context", Status: domain.StatusOpen, Priority: domain.PriorityUnknown})
	if strings.Contains(bare, "Context:") {
		t.Fatalf("blank description produced context block: %q", bare)
	}
	if !strings.HasSuffix(bare, "Priority: unknown") {
		t.Fatalf("unexpected tail: %q", bare)
	}
}
