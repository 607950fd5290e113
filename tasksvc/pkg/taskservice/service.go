package taskservice

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/tasktracker/tasksvc"
	"github.com/twinj/uuid"
)

type Service interface {
	CreateTask(ctx context.Context, a tasksvc.Auth, f tasksvc.Fields) (tasksvc.Task, error)
	Tasks(ctx context.Context, a tasksvc.Auth) ([]tasksvc.Task, error)
	Task(ctx context.Context, a tasksvc.Auth, taskID string) (tasksvc.Task, error)
	UpdateTask(ctx context.Context, a tasksvc.Auth, taskID string, f tasksvc.Fields) error
	DeleteTask(ctx context.Context, a tasksvc.Auth, taskID string) error
}

func New(t tasksvc.TaskRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tasks tasksvc.TaskRepository
}

func NewBasicService(t tasksvc.TaskRepository) Service {
	return basicService{tasks: t}
}

func (s basicService) CreateTask(ctx context.Context, a tasksvc.Auth, f tasksvc.Fields) (tasksvc.Task, error) {
	if a.UserID == "" {
		return tasksvc.Task{}, tasksvc.ErrAuthMissing
	}
	if err := f.Validate(); err != nil {
		return tasksvc.Task{}, err
	}

	task := tasksvc.Task{
		ID:          uuid.NewV4().String(),
		OwnerID:     a.UserID,
		Title:       f.Title,
		Description: f.Description,
		Priority:    f.Priority,
		DueDate:     f.DueDate,
		IsCompleted: false,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return tasksvc.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Tasks lists the caller's tasks, latest due date first. Tasks without a
// due date come last; ties are ordered by id.
func (s basicService) Tasks(ctx context.Context, a tasksvc.Auth) ([]tasksvc.Task, error) {
	if a.UserID == "" {
		return nil, tasksvc.ErrAuthMissing
	}

	tasks, err := s.tasks.FindAll(ctx, a.UserID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	owned := tasks[:0]
	for _, task := range tasks {
		if task.OwnerID == a.UserID {
			owned = append(owned, task)
		}
	}

	sort.SliceStable(owned, func(i, j int) bool {
		return less(owned[i], owned[j])
	})
	return owned, nil
}

func (s basicService) Task(ctx context.Context, a tasksvc.Auth, taskID string) (tasksvc.Task, error) {
	return s.resolve(ctx, a, taskID)
}

func (s basicService) UpdateTask(ctx context.Context, a tasksvc.Auth, taskID string, f tasksvc.Fields) error {
	if err := f.Validate(); err != nil {
		return err
	}

	task, err := s.resolve(ctx, a, taskID)
	if err != nil {
		return err
	}

	task.Title = f.Title
	task.Description = f.Description
	task.Priority = f.Priority
	task.DueDate = f.DueDate
	task.IsCompleted = f.IsCompleted

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, tasksvc.ErrTaskNotFound) {
			return tasksvc.ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s basicService) DeleteTask(ctx context.Context, a tasksvc.Auth, taskID string) error {
	task, err := s.resolve(ctx, a, taskID)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, task.OwnerID, task.ID); err != nil {
		if errors.Is(err, tasksvc.ErrTaskNotFound) {
			return tasksvc.ErrTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// resolve loads a task on behalf of a caller. A task owned by someone else
// is reported exactly like a missing one.
func (s basicService) resolve(ctx context.Context, a tasksvc.Auth, taskID string) (tasksvc.Task, error) {
	if a.UserID == "" {
		return tasksvc.Task{}, tasksvc.ErrAuthMissing
	}

	task, err := s.tasks.Find(ctx, taskID)
	if errors.Is(err, tasksvc.ErrTaskNotFound) {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	if err != nil {
		return tasksvc.Task{}, fmt.Errorf("find task: %w", err)
	}

	if task.OwnerID != a.UserID {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	return task, nil
}

func less(a, b tasksvc.Task) bool {
	switch {
	case a.DueDate != nil && b.DueDate != nil:
		if !a.DueDate.Equal(b.DueDate.Time) {
			return a.DueDate.After(b.DueDate.Time)
		}
	case a.DueDate != nil:
		return true
	case b.DueDate != nil:
		return false
	}
	return a.ID < b.ID
}
