package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dealflow/crm/internal/domain"
)

var taskColumns = []string{
	"id", "owner_id", "contact_id", "title", "description", "task_type",
	"priority", "status", "is_completed", "due_date", "completed_at",
	"created_at", "updated_at",
}

// TaskRepository implements the domain.TaskRepository interface using PostgreSQL
type TaskRepository struct {
	systemDB *sql.DB
}

// NewTaskRepository creates a new TaskRepository instance
func NewTaskRepository(db *sql.DB) domain.TaskRepository {
	return &TaskRepository{
		systemDB: db,
	}
}

func scanTask(row scanner) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.ContactID, &t.Title, &t.Description, &t.TaskType,
		&t.Priority, &t.Status, &t.IsCompleted, &t.DueDate, &t.CompletedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask adds a new task
func (r *TaskRepository) CreateTask(ctx context.Context, task *domain.Task) error {
	query, args, err := psql.Insert("tasks").
		Columns(taskColumns...).
		Values(
			task.ID, task.OwnerID, task.ContactID, task.Title, task.Description, task.TaskType,
			task.Priority, task.Status, task.IsCompleted, utcPtr(task.DueDate), utcPtr(task.CompletedAt),
			task.CreatedAt.UTC(), task.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	_, err = execReferencingContact(ctx, r.systemDB, task.OwnerID, task.ContactID, "create task", query, args)
	return err
}

// GetTask retrieves a task by ID within the owner's scope
func (r *TaskRepository) GetTask(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	query, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	task, err := scanTask(r.systemDB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Entity: "task", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListTasks orders by due date with undated tasks last, newest first among equals
func (r *TaskRepository) ListTasks(ctx context.Context, ownerID string, filter domain.TaskFilter) ([]*domain.Task, error) {
	builder := psql.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"owner_id": ownerID})

	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.Priority != nil {
		builder = builder.Where(sq.Eq{"priority": string(*filter.Priority)})
	}
	if filter.TaskType != nil {
		builder = builder.Where(sq.Eq{"task_type": string(*filter.TaskType)})
	}
	if filter.ContactID != nil {
		builder = builder.Where(sq.Eq{"contact_id": *filter.ContactID})
	}
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		builder = builder.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}

	builder = paginate(
		builder.OrderBy("due_date ASC NULLS LAST", "created_at DESC", "id"),
		filter.Skip, filter.Limit,
	)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tasks query: %w", err)
	}

	rows, err := r.systemDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

// UpdateTask writes every mutable column of the task
func (r *TaskRepository) UpdateTask(ctx context.Context, task *domain.Task) error {
	query, args, err := psql.Update("tasks").
		SetMap(map[string]interface{}{
			"contact_id":   task.ContactID,
			"title":        task.Title,
			"description":  task.Description,
			"task_type":    task.TaskType,
			"priority":     task.Priority,
			"status":       task.Status,
			"is_completed": task.IsCompleted,
			"due_date":     utcPtr(task.DueDate),
			"completed_at": utcPtr(task.CompletedAt),
			"updated_at":   task.UpdatedAt.UTC(),
		}).
		Where(sq.Eq{"id": task.ID, "owner_id": task.OwnerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := execReferencingContact(ctx, r.systemDB, task.OwnerID, task.ContactID, "update task", query, args)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "task", ID: task.ID}
	}
	return nil
}

// DeleteTask removes a task
func (r *TaskRepository) DeleteTask(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`

	result, err := r.systemDB.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "task", ID: id}
	}
	return nil
}
