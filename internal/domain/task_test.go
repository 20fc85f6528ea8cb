package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewTaskValidation(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		in      TaskInput
		wantErr error
	}{
		{"missing id", TaskInput{Title: "A"}, ErrInvalidID},
		{"missing title", TaskInput{ID: "tix-1"}, ErrInvalidTitle},
		{"whitespace title", TaskInput{ID: "tix-1", Title: "   "}, ErrInvalidTitle},
		{"bogus status", TaskInput{ID: "tix-1", Title: "A", Status: "paused"}, ErrInvalidStatus},
		{"priority too high", TaskInput{ID: "tix-1", Title: "A", Priority: 9}, ErrInvalidPriority},
		{"negative non-sentinel priority", TaskInput{ID: "tix-1", Title: "A", Priority: -3}, ErrInvalidPriority},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTask(tc.in, now); !errors.Is(err, tc.wantErr) {
				t.Fatalf("NewTask(%#v) error = %v, want %v", tc.in, err, tc.wantErr)
			}
		})
	}
}

func TestNewTaskDefaults(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{
		ID:       "  tix-7  ",
		Title:    "  Trim everything  ",
		Priority: PriorityUnknown,
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.ID != "tix-7" || task.Title != "Trim everything" {
		t.Fatalf("task = %#v, want trimmed id and title", task)
	}
	if task.Status != StatusOpen {
		t.Fatalf("status = %q, want open default", task.Status)
	}
	if task.Type != DefaultTaskType {
		t.Fatalf("type = %q, want %q", task.Type, DefaultTaskType)
	}
	if !task.CreatedAt.Equal(now) || !task.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps = %v/%v, want %v", task.CreatedAt, task.UpdatedAt, now)
	}
}

func TestStatusEnumeration(t *testing.T) {
	for _, status := range Statuses() {
		if !status.IsValid() {
			t.Fatalf("%q reported invalid", status)
		}
	}
	if Status("paused").IsValid() {
		t.Fatal("paused reported valid")
	}
	if got := StatusInProgress.Label(); got != "in progress" {
		t.Fatalf("Label() = %q, want in progress", got)
	}
}

func TestValidPriority(t *testing.T) {
	for p := 0; p <= 4; p++ {
		if !ValidPriority(p) {
			t.Fatalf("ValidPriority(%d) = false", p)
		}
	}
	for _, p := range []int{-1, 5, 100} {
		if ValidPriority(p) {
			t.Fatalf("ValidPriority(%d) = true", p)
		}
	}
}
