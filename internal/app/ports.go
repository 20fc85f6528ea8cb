package app

import (
	"context"

	"github.com/evanschultz/tix/internal/domain"
)

// Tracker is the port to a task-tracker backend. Adapters translate these
// calls into tracker-specific operations (an external CLI process, the local
// sqlite store).
type Tracker interface {
	// List returns the current candidate task set. Filtering by readiness or
	// status is the tracker's responsibility.
	List(context.Context) ([]domain.Task, error)
	// Show returns the full record for one task, including the description
	// that List results may omit.
	Show(context.Context, string) (domain.Task, error)
	// Update applies a partial patch to one task.
	Update(context.Context, string, Patch) error
	// Create stores a new task and returns the tracker-assigned record.
	Create(context.Context, CreateTaskInput) (domain.Task, error)

	// StatusCycle declares the ordered statuses visited by the toggle key.
	StatusCycle() []domain.Status
	// TaskTypes declares the ordered type labels visited by the type cycle.
	TaskTypes() []string
	// Priorities declares the priority labels offered by the tracker.
	Priorities() []string
}

// Patch carries a partial task update; nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Status      *domain.Status
	Priority    *int
	Type        *string
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil && p.Type == nil
}

// CreateTaskInput holds input values for create operations.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.Status
	Priority    int
	Type        string
}
