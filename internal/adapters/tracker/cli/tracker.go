// Package cli adapts an external task-tracker command line tool to the
// app.Tracker port. Every operation shells out to the configured binary and
// decodes its JSON output.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/evanschultz/tix/internal/app"
	"github.com/evanschultz/tix/internal/domain"
)

// commandTimeout bounds every tracker invocation.
const commandTimeout = 30 * time.Second

// Runner executes one tracker command and returns stdout, stderr, and the
// process error. The default runner wraps os/exec; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// execRunner is the os/exec-backed Runner used in production.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Options configures the external tracker binary and its declared vocabularies.
type Options struct {
	// Command is the tracker binary name or path. Required.
	Command string
	// Args are prepended to every invocation, before the subcommand.
	Args []string
	// ListMode selects which tasks List fetches: "active" (default), "open",
	// or "all".
	ListMode string
	// StatusCycle overrides the toggle order declared to the service.
	StatusCycle []domain.Status
	// TaskTypes overrides the type labels declared to the service.
	TaskTypes []string
	// Priorities overrides the priority labels declared to the service.
	Priorities []string
}

// Tracker shells out to an external tracker CLI for every operation.
type Tracker struct {
	opts   Options
	runner Runner
}

// New constructs a new value for this package.
func New(opts Options) (*Tracker, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return nil, errors.New("tracker command is required")
	}
	if opts.ListMode == "" {
		opts.ListMode = "active"
	}
	switch opts.ListMode {
	case "active", "open", "all":
	default:
		return nil, fmt.Errorf("unknown list mode %q", opts.ListMode)
	}
	return &Tracker{opts: opts, runner: execRunner{}}, nil
}

// NewWithRunner constructs a tracker with a substitute command runner.
func NewWithRunner(opts Options, runner Runner) (*Tracker, error) {
	tracker, err := New(opts)
	if err != nil {
		return nil, err
	}
	tracker.runner = runner
	return tracker, nil
}

// taskPayload mirrors the tracker's JSON task record.
type taskPayload struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	Priority     *int   `json:"priority"`
	Type         string `json:"issue_type"`
	Assignee     string `json:"assignee"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	Dependencies int    `json:"dependency_count"`
	Dependents   int    `json:"dependent_count"`
	Comments     int    `json:"comment_count"`
}

// toDomain converts a decoded payload into the domain task shape.
func (p taskPayload) toDomain() domain.Task {
	priority := domain.PriorityUnknown
	if p.Priority != nil {
		priority = *p.Priority
	}
	taskType := strings.TrimSpace(p.Type)
	if taskType == "" {
		taskType = domain.DefaultTaskType
	}
	return domain.Task{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Status:       domain.Status(p.Status),
		Priority:     priority,
		Type:         taskType,
		Assignee:     p.Assignee,
		CreatedAt:    parseTS(p.CreatedAt),
		UpdatedAt:    parseTS(p.UpdatedAt),
		Dependencies: p.Dependencies,
		Dependents:   p.Dependents,
		Comments:     p.Comments,
	}
}

// List fetches the candidate task set for the configured mode.
func (t *Tracker) List(ctx context.Context) ([]domain.Task, error) {
	args := []string{"list", "--json"}
	switch t.opts.ListMode {
	case "open":
		args = append(args, "--status", "open")
	case "all":
		args = append(args, "--all")
	}
	out, err := t.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var payloads []taskPayload
	if err := json.Unmarshal(out, &payloads); err != nil {
		return nil, fmt.Errorf("parse list %s output: %w", t.opts.ListMode, err)
	}
	tasks := make([]domain.Task, 0, len(payloads))
	for _, payload := range payloads {
		tasks = append(tasks, payload.toDomain())
	}
	return tasks, nil
}

// Show fetches the full record for one task id.
func (t *Tracker) Show(ctx context.Context, id string) (domain.Task, error) {
	out, err := t.run(ctx, "show", id, "--json")
	if err != nil {
		if isNotFound(err) {
			return domain.Task{}, app.NotFoundError{ID: id}
		}
		return domain.Task{}, err
	}
	// Some trackers wrap show output in a single-element array. An empty
	// array is their way of saying the id does not exist.
	var payloads []taskPayload
	if jsonErr := json.Unmarshal(out, &payloads); jsonErr == nil {
		if len(payloads) == 0 {
			return domain.Task{}, app.NotFoundError{ID: id}
		}
		return payloads[0].toDomain(), nil
	}
	var payload taskPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return domain.Task{}, fmt.Errorf("parse show %s output: %w", id, err)
	}
	return payload.toDomain(), nil
}

// Update applies a partial patch via the tracker's update subcommand.
func (t *Tracker) Update(ctx context.Context, id string, patch app.Patch) error {
	args := []string{"update", id}
	if patch.Title != nil {
		args = append(args, "--title", *patch.Title)
	}
	if patch.Description != nil {
		args = append(args, "--description", *patch.Description)
	}
	if patch.Status != nil {
		args = append(args, "--status", string(*patch.Status))
	}
	if patch.Priority != nil {
		args = append(args, "--priority", strconv.Itoa(*patch.Priority))
	}
	if patch.Type != nil {
		args = append(args, "--type", *patch.Type)
	}
	_, err := t.run(ctx, args...)
	if isNotFound(err) {
		return app.NotFoundError{ID: id}
	}
	return err
}

// Create stores a new task. Trackers only mint tasks in the open status, so a
// different initial status is applied with a follow-up update against the new
// id.
func (t *Tracker) Create(ctx context.Context, in app.CreateTaskInput) (domain.Task, error) {
	args := []string{"create", in.Title, "--json"}
	if in.Description != "" {
		args = append(args, "--description", in.Description)
	}
	if in.Priority != domain.PriorityUnknown {
		args = append(args, "--priority", strconv.Itoa(in.Priority))
	}
	if in.Type != "" && in.Type != domain.DefaultTaskType {
		args = append(args, "--type", in.Type)
	}
	out, err := t.run(ctx, args...)
	if err != nil {
		return domain.Task{}, err
	}
	var payload taskPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return domain.Task{}, fmt.Errorf("parse create output: %w", err)
	}
	task := payload.toDomain()

	if in.Status != "" && in.Status != task.Status {
		status := in.Status
		if err := t.Update(ctx, task.ID, app.Patch{Status: &status}); err != nil {
			return domain.Task{}, fmt.Errorf("set status on created task %s: %w", task.ID, err)
		}
		task.Status = status
	}
	return task, nil
}

// StatusCycle returns the configured toggle order.
func (t *Tracker) StatusCycle() []domain.Status { return t.opts.StatusCycle }

// TaskTypes returns the configured type labels.
func (t *Tracker) TaskTypes() []string { return t.opts.TaskTypes }

// Priorities returns the configured priority labels.
func (t *Tracker) Priorities() []string { return t.opts.Priorities }

// commandError carries a failed invocation's stderr for message selection.
type commandError struct {
	name   string
	stderr string
	cause  error
}

func (e *commandError) Error() string {
	if e.stderr != "" {
		return e.stderr
	}
	return fmt.Sprintf("%s command failed: %v", e.name, e.cause)
}

func (e *commandError) Unwrap() error { return e.cause }

// run executes one subcommand with the shared timeout and returns stdout.
func (t *Tracker) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	full := append(append([]string{}, t.opts.Args...), args...)
	stdout, stderr, err := t.runner.Run(ctx, t.opts.Command, full...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s %s timed out: %w", t.opts.Command, args[0], ctx.Err())
		}
		return nil, &commandError{name: t.opts.Command, stderr: strings.TrimSpace(string(stderr)), cause: err}
	}
	return stdout, nil
}

// isNotFound sniffs the tracker's stderr for a missing-id complaint.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr *commandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return strings.Contains(strings.ToLower(cmdErr.stderr), "not found")
}

// parseTS tolerates the timestamp layouts trackers commonly emit.
func parseTS(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
