package domain

import (
	"slices"
	"strings"
	"time"
)

// Status represents one tracker lifecycle state.
type Status string

// StatusOpen and related constants define the closed status enumeration.
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDeferred   Status = "deferred"
	StatusClosed     Status = "closed"
)

// statuses stores the enumeration in canonical order.
var statuses = []Status{StatusOpen, StatusInProgress, StatusBlocked, StatusDeferred, StatusClosed}

// Statuses returns the closed status enumeration in canonical order.
func Statuses() []Status {
	return slices.Clone(statuses)
}

// IsValid reports whether s is a member of the status enumeration.
func (s Status) IsValid() bool {
	return slices.Contains(statuses, s)
}

// Label returns the status for prose display, with underscores replaced by spaces.
func (s Status) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// PriorityUnknown marks a task without an assigned priority.
const PriorityUnknown = -1

// DefaultTaskType defines the type applied when the tracker reports none.
const DefaultTaskType = "task"

// ValidPriority reports whether p is inside the tracker's 0-4 priority range.
func ValidPriority(p int) bool {
	return p >= 0 && p <= 4
}

// Task represents one trackable work item.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    int
	Type        string

	// Read-only metadata supplied by the tracker; never mutated here.
	Assignee     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Dependencies int
	Dependents   int
	Comments     int
}

// TaskInput carries the caller-supplied fields for a new task.
type TaskInput struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    int
	Type        string
}

// NewTask validates input and constructs a task record.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Status == "" {
		in.Status = StatusOpen
	}
	if !in.Status.IsValid() {
		return Task{}, ErrInvalidStatus
	}
	if in.Priority != PriorityUnknown && !ValidPriority(in.Priority) {
		return Task{}, ErrInvalidPriority
	}
	if strings.TrimSpace(in.Type) == "" {
		in.Type = DefaultTaskType
	}

	return Task{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Type:        in.Type,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}
