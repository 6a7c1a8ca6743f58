package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_task_repository.go -package mocks github.com/dealflow/crm/internal/domain TaskRepository
//go:generate mockgen -destination mocks/mock_task_service.go -package mocks github.com/dealflow/crm/internal/domain TaskService

type TaskType string

const (
	TaskTypeTask     TaskType = "task"
	TaskTypeCall     TaskType = "call"
	TaskTypeMeeting  TaskType = "meeting"
	TaskTypeEmail    TaskType = "email"
	TaskTypeFollowUp TaskType = "follow_up"
)

func (t TaskType) IsValid() bool {
	return govalidator.IsIn(string(t), "task", "call", "meeting", "email", "follow_up")
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) IsValid() bool {
	return govalidator.IsIn(string(p), "low", "medium", "high", "urgent")
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists statuses in workflow order
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

func (s TaskStatus) IsValid() bool {
	return govalidator.IsIn(string(s), "pending", "in_progress", "completed", "cancelled")
}

type Task struct {
	ID          string       `json:"id" valid:"required,uuid"`
	OwnerID     string       `json:"owner_id" valid:"required"`
	ContactID   *string      `json:"contact_id"`
	Title       string       `json:"title" valid:"required"`
	Description *string      `json:"description"`
	TaskType    TaskType     `json:"task_type" valid:"required,in(task|call|meeting|email|follow_up)"`
	Priority    TaskPriority `json:"priority" valid:"required,in(low|medium|high|urgent)"`
	Status      TaskStatus   `json:"status" valid:"required,in(pending|in_progress|completed|cancelled)"`
	IsCompleted bool         `json:"is_completed"`
	DueDate     *time.Time   `json:"due_date"`
	CompletedAt *time.Time   `json:"completed_at"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (t *Task) Validate() error {
	if _, err := govalidator.ValidateStruct(t); err != nil {
		return NewValidationError(err.Error())
	}
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title cannot be blank")
	}
	if t.ContactID != nil && !govalidator.IsUUID(*t.ContactID) {
		return NewValidationError("contact_id must be a UUID")
	}
	return nil
}

// ActivityTime is when the task last changed completion state. Completed
// tasks without a completed_at fall back to updated_at.
func (t *Task) ActivityTime() time.Time {
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	return t.UpdatedAt
}

// TaskPatch holds the fields present in a create or update body.
// completed_at is server managed and ignored if sent.
type TaskPatch struct {
	Title       *string
	Description *NullableString
	TaskType    *TaskType
	Priority    *TaskPriority
	Status      *TaskStatus
	IsCompleted *bool
	DueDate     *NullableTime
	ContactID   *NullableString
}

func TaskPatchFromJSON(data []byte) (*TaskPatch, error) {
	result, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	p := &TaskPatch{}
	if err := parseString(result, "title", &p.Title); err != nil {
		return nil, err
	}
	if err := parseNullableString(result, "description", &p.Description); err != nil {
		return nil, err
	}
	if err := parseBool(result, "is_completed", &p.IsCompleted); err != nil {
		return nil, err
	}
	if err := parseNullableTime(result, "due_date", &p.DueDate); err != nil {
		return nil, err
	}
	if err := parseNullableString(result, "contact_id", &p.ContactID); err != nil {
		return nil, err
	}

	var taskType, priority, status *string
	if err := parseString(result, "task_type", &taskType); err != nil {
		return nil, err
	}
	if err := parseString(result, "priority", &priority); err != nil {
		return nil, err
	}
	if err := parseString(result, "status", &status); err != nil {
		return nil, err
	}

	if taskType != nil {
		v := TaskType(*taskType)
		if !v.IsValid() {
			return nil, NewValidationError(fmt.Sprintf("invalid task_type: %s", *taskType))
		}
		p.TaskType = &v
	}
	if priority != nil {
		v := TaskPriority(*priority)
		if !v.IsValid() {
			return nil, NewValidationError(fmt.Sprintf("invalid priority: %s", *priority))
		}
		p.Priority = &v
	}
	if status != nil {
		v := TaskStatus(*status)
		if !v.IsValid() {
			return nil, NewValidationError(fmt.Sprintf("invalid task status: %s", *status))
		}
		p.Status = &v
	}

	return p, nil
}

// NewTask builds a task from a create body. Creating a task as completed
// stamps completed_at with now.
func NewTask(id, ownerID string, p *TaskPatch, now time.Time) (*Task, error) {
	if p.Title == nil {
		return nil, NewValidationError("title is required")
	}

	t := ApplyTaskPatch(Task{
		ID:        id,
		OwnerID:   ownerID,
		TaskType:  TaskTypeTask,
		Priority:  TaskPriorityMedium,
		Status:    TaskStatusPending,
		CreatedAt: now,
	}, p, now)

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ApplyTaskPatch is the task transition function. It keeps is_completed,
// status and completed_at consistent:
//
//   - is_completed false -> true stamps completed_at and sets status completed
//   - is_completed true -> false clears completed_at and resets a completed status to pending
//   - a status-only change into or out of completed drives is_completed the same way
//
// When both is_completed and status are sent, is_completed wins.
func ApplyTaskPatch(old Task, p *TaskPatch, now time.Time) Task {
	t := old
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	applyNullable(&t.Description, p.Description)
	if p.TaskType != nil {
		t.TaskType = *p.TaskType
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	applyNullableTime(&t.DueDate, p.DueDate)
	applyNullable(&t.ContactID, p.ContactID)

	if p.Status != nil {
		t.Status = *p.Status
	}
	switch {
	case p.IsCompleted != nil:
		t.IsCompleted = *p.IsCompleted
	case p.Status != nil:
		t.IsCompleted = *p.Status == TaskStatusCompleted
	}

	if t.IsCompleted {
		t.Status = TaskStatusCompleted
		if !old.IsCompleted {
			stamp := now
			t.CompletedAt = &stamp
		}
	} else {
		if t.Status == TaskStatusCompleted {
			t.Status = TaskStatusPending
		}
		t.CompletedAt = nil
	}

	t.UpdatedAt = now
	return t
}

// CompleteTask marks t completed. Completing a completed task changes nothing.
func CompleteTask(t Task, now time.Time) (Task, bool) {
	if t.IsCompleted {
		return t, false
	}
	done := true
	return ApplyTaskPatch(t, &TaskPatch{IsCompleted: &done}, now), true
}

type TaskFilter struct {
	ListParams
	Status    *TaskStatus
	Priority  *TaskPriority
	TaskType  *TaskType
	ContactID *string
}

// TaskRepository stores tasks. Every method is scoped by owner.
// Lists are ordered by due_date ascending with nulls last, then newest first.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, ownerID, id string) (*Task, error)
	ListTasks(ctx context.Context, ownerID string, filter TaskFilter) ([]*Task, error)
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, ownerID, id string) error
}

type TaskService interface {
	ListTasks(ctx context.Context, ownerID string, filter TaskFilter) ([]*Task, error)
	GetTask(ctx context.Context, ownerID, id string) (*Task, error)
	CreateTask(ctx context.Context, ownerID string, patch *TaskPatch) (*Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, patch *TaskPatch) (*Task, error)
	CompleteTask(ctx context.Context, ownerID, id string) (*Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
}
