// Package sqlite provides a local tracker backed by an embedded database,
// used when no external tracker command is configured.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/evanschultz/tix/internal/app"
	"github.com/evanschultz/tix/internal/domain"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// idPrefix namespaces locally minted task ids.
const idPrefix = "tix"

// Tracker stores tasks in a local sqlite database and implements the
// app.Tracker port.
type Tracker struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Tracker, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	tracker := &Tracker{db: db}
	if err := tracker.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return tracker, nil
}

// OpenInMemory opens a throwaway in-memory database.
func OpenInMemory() (*Tracker, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	tracker := &Tracker{db: db}
	if err := tracker.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return tracker, nil
}

// Close closes the underlying database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// migrate handles migrate.
func (t *Tracker) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'open',
			priority INTEGER NOT NULL DEFAULT -1,
			task_type TEXT NOT NULL DEFAULT 'task',
			assignee TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status_created_at ON tasks(status, created_at ASC);`,
	}
	for _, stmt := range stmts {
		if _, err := t.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// List returns every non-closed task in creation order.
func (t *Tracker) List(ctx context.Context) ([]domain.Task, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, title, description, status, priority, task_type, assignee, created_at, updated_at
		FROM tasks
		WHERE status != ?
		ORDER BY created_at ASC, id ASC
	`, string(domain.StatusClosed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// Show returns one task by id.
func (t *Tracker) Show(ctx context.Context, id string) (domain.Task, error) {
	row := t.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, priority, task_type, assignee, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, app.NotFoundError{ID: id}
	}
	return task, err
}

// Update applies a partial patch to one task.
func (t *Tracker) Update(ctx context.Context, id string, patch app.Patch) error {
	sets := []string{"updated_at = ?"}
	args := []any{ts(time.Now())}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.Type != nil {
		sets = append(sets, "task_type = ?")
		args = append(args, *patch.Type)
	}
	args = append(args, id)

	res, err := t.db.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.NotFoundError{ID: id}
	}
	return nil
}

// Create mints an id and stores a new task.
func (t *Tracker) Create(ctx context.Context, in app.CreateTaskInput) (domain.Task, error) {
	task, err := domain.NewTask(domain.TaskInput{
		ID:          mintID(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Type:        in.Type,
	}, time.Now())
	if err != nil {
		return domain.Task{}, err
	}
	_, err = t.db.ExecContext(ctx, `
		INSERT INTO tasks(id, title, description, status, priority, task_type, assignee, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.Title, task.Description, string(task.Status), task.Priority, task.Type, task.Assignee, ts(task.CreatedAt), ts(task.UpdatedAt))
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// StatusCycle defers to the service defaults.
func (t *Tracker) StatusCycle() []domain.Status { return nil }

// TaskTypes defers to the service defaults.
func (t *Tracker) TaskTypes() []string { return nil }

// Priorities defers to the service defaults.
func (t *Tracker) Priorities() []string { return nil }

// mintID produces a short prefixed id like tix-3f9a2c1d.
func mintID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return idPrefix + "-" + raw[:8]
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanTask handles scan task.
func scanTask(s scanner) (domain.Task, error) {
	var (
		task       domain.Task
		status     string
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&task.ID, &task.Title, &task.Description, &status, &task.Priority, &task.Type, &task.Assignee, &createdRaw, &updatedRaw); err != nil {
		return domain.Task{}, err
	}
	task.Status = domain.Status(status)
	task.CreatedAt = parseTS(createdRaw)
	task.UpdatedAt = parseTS(updatedRaw)
	return task, nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
