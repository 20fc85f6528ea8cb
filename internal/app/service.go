package app

import (
	"context"
	"slices"
	"strings"

	"github.com/evanschultz/tix/internal/domain"
)

// defaultStatusCycle is used when the tracker declares no toggle order.
var defaultStatusCycle = []domain.Status{domain.StatusOpen, domain.StatusInProgress, domain.StatusClosed}

// defaultTaskTypes is used when the tracker declares no type labels.
var defaultTaskTypes = []string{"task", "bug", "feature", "chore"}

// defaultPriorities is used when the tracker declares no priority labels.
var defaultPriorities = []string{"P0", "P1", "P2", "P3", "P4"}

// Service wraps a Tracker with the validation and cycling rules shared by
// every front end (TUI, CLI commands, MCP tools).
type Service struct {
	tracker Tracker
}

// NewService constructs a new value for this package.
func NewService(tracker Tracker) *Service {
	return &Service{tracker: tracker}
}

// ListTasks returns the tracker's current candidate set.
func (s *Service) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.tracker.List(ctx)
}

// ShowTask returns the full record for one task.
func (s *Service) ShowTask(ctx context.Context, id string) (domain.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Task{}, domain.ErrInvalidID
	}
	return s.tracker.Show(ctx, id)
}

// UpdateTask applies a partial patch. An empty patch is a silent no-op so
// repeated saves of an unchanged draft never reach the tracker.
func (s *Service) UpdateTask(ctx context.Context, id string, patch Patch) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrInvalidID
	}
	if patch.IsEmpty() {
		return nil
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return domain.ErrInvalidTitle
		}
		patch.Title = &trimmed
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return domain.ErrInvalidStatus
	}
	if patch.Priority != nil && *patch.Priority != domain.PriorityUnknown && !domain.ValidPriority(*patch.Priority) {
		return domain.ErrInvalidPriority
	}
	return s.tracker.Update(ctx, id, patch)
}

// CreateTask validates input locally and stores a new task. An empty trimmed
// title is rejected before any tracker call.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return domain.Task{}, domain.ErrInvalidTitle
	}
	if in.Status == "" {
		in.Status = domain.StatusOpen
	}
	if !in.Status.IsValid() {
		return domain.Task{}, domain.ErrInvalidStatus
	}
	if in.Priority != domain.PriorityUnknown && !domain.ValidPriority(in.Priority) {
		return domain.Task{}, domain.ErrInvalidPriority
	}
	return s.tracker.Create(ctx, in)
}

// StatusCycle returns the tracker's declared toggle order.
func (s *Service) StatusCycle() []domain.Status {
	if cycle := s.tracker.StatusCycle(); len(cycle) > 0 {
		return cycle
	}
	return slices.Clone(defaultStatusCycle)
}

// TaskTypes returns the tracker's declared type labels.
func (s *Service) TaskTypes() []string {
	if types := s.tracker.TaskTypes(); len(types) > 0 {
		return types
	}
	return slices.Clone(defaultTaskTypes)
}

// Priorities returns the tracker's declared priority labels.
func (s *Service) Priorities() []string {
	if priorities := s.tracker.Priorities(); len(priorities) > 0 {
		return priorities
	}
	return slices.Clone(defaultPriorities)
}

// NextStatus returns the cycle entry after current, wrapping at the end. A
// status outside the cycle lands on the first entry.
func (s *Service) NextStatus(current domain.Status) domain.Status {
	cycle := s.StatusCycle()
	idx := slices.Index(cycle, current)
	if idx < 0 {
		return cycle[0]
	}
	return cycle[(idx+1)%len(cycle)]
}

// NextType returns the type label after current, wrapping at the end.
func (s *Service) NextType(current string) string {
	types := s.TaskTypes()
	idx := slices.Index(types, current)
	if idx < 0 {
		return types[0]
	}
	return types[(idx+1)%len(types)]
}
