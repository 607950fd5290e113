package inmem

import (
	"context"
	"sync"

	"github.com/ichigozero/tasktracker/tasksvc"
)

type taskRepository struct {
	mtx   sync.RWMutex
	tasks map[string]tasksvc.Task
}

func NewTaskRepository() tasksvc.TaskRepository {
	return &taskRepository{tasks: make(map[string]tasksvc.Task)}
}

func (r *taskRepository) Find(ctx context.Context, id string) (tasksvc.Task, error) {
	if err := ctx.Err(); err != nil {
		return tasksvc.Task{}, err
	}

	r.mtx.RLock()
	defer r.mtx.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, ownerID string) ([]tasksvc.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mtx.RLock()
	defer r.mtx.RUnlock()

	tasks := []tasksvc.Task{}
	for _, task := range r.tasks {
		if task.OwnerID == ownerID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task tasksvc.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.tasks[task.ID]; ok {
		return tasksvc.ErrInvalidArgument
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *taskRepository) Update(ctx context.Context, task tasksvc.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	stored, ok := r.tasks[task.ID]
	if !ok || stored.OwnerID != task.OwnerID {
		return tasksvc.ErrTaskNotFound
	}

	stored.Title = task.Title
	stored.Description = task.Description
	stored.Priority = task.Priority
	stored.DueDate = task.DueDate
	stored.IsCompleted = task.IsCompleted
	r.tasks[task.ID] = stored
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	stored, ok := r.tasks[id]
	if !ok || stored.OwnerID != ownerID {
		return tasksvc.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}
