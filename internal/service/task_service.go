package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

type TaskService struct {
	repo     domain.TaskRepository
	contacts domain.ContactRepository
	logger   logger.Logger
	now      func() time.Time
	newID    func() string
}

func NewTaskService(repo domain.TaskRepository, contacts domain.ContactRepository, logger logger.Logger) *TaskService {
	return &TaskService{
		repo:     repo,
		contacts: contacts,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID string, filter domain.TaskFilter) ([]*domain.Task, error) {
	if err := filter.ListParams.Validate(); err != nil {
		return nil, err
	}
	if err := checkContactFilter(filter.ContactID); err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListTasks(ctx, ownerID, filter)
	if err != nil {
		return nil, logFailure(s.logger, ownerID, "list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	if err := requireID("task", id); err != nil {
		return nil, err
	}

	task, err := s.repo.GetTask(ctx, ownerID, id)
	if err != nil {
		return nil, logFailure(s.logger, ownerID, "get task", err)
	}
	return task, nil
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID string, patch *domain.TaskPatch) (*domain.Task, error) {
	task, err := domain.NewTask(s.newID(), ownerID, patch, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := checkContactRef(ctx, s.contacts, ownerID, task.ContactID); err != nil {
		return nil, logFailure(s.logger, ownerID, "check task contact", err)
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, logFailure(s.logger, ownerID, "create task", err)
	}
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, ownerID, id string, patch *domain.TaskPatch) (*domain.Task, error) {
	existing, err := s.GetTask(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updated := domain.ApplyTaskPatch(*existing, patch, s.now().UTC())
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if patch.ContactID != nil && !patch.ContactID.IsNull {
		if err := checkContactRef(ctx, s.contacts, ownerID, updated.ContactID); err != nil {
			return nil, logFailure(s.logger, ownerID, "check task contact", err)
		}
	}

	if err := s.repo.UpdateTask(ctx, &updated); err != nil {
		return nil, logFailure(s.logger, ownerID, "update task", err)
	}
	return &updated, nil
}

// CompleteTask marks the task done. An already completed task is returned
// unchanged without a write.
func (s *TaskService) CompleteTask(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	existing, err := s.GetTask(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	completed, changed := domain.CompleteTask(*existing, s.now().UTC())
	if !changed {
		return existing, nil
	}

	if err := s.repo.UpdateTask(ctx, &completed); err != nil {
		return nil, logFailure(s.logger, ownerID, "complete task", err)
	}
	return &completed, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id string) error {
	if err := requireID("task", id); err != nil {
		return err
	}

	if err := s.repo.DeleteTask(ctx, ownerID, id); err != nil {
		return logFailure(s.logger, ownerID, "delete task", err)
	}
	return nil
}
