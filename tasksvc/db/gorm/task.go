package gorm

import (
	"context"
	"errors"

	"github.com/ichigozero/tasktracker/tasksvc"
	libgorm "gorm.io/gorm"
)

type taskRepository struct {
	db *libgorm.DB
}

func NewTaskRepository(db *libgorm.DB) tasksvc.TaskRepository {
	return &taskRepository{db}
}

func (t *taskRepository) Find(ctx context.Context, id string) (tasksvc.Task, error) {
	var task tasksvc.Task
	result := t.db.WithContext(ctx).Where("id = ?", id).First(&task)
	if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}

	return task, result.Error
}

func (t *taskRepository) FindAll(ctx context.Context, ownerID string) ([]tasksvc.Task, error) {
	tasks := []tasksvc.Task{}
	result := t.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&tasks)

	return tasks, result.Error
}

func (t *taskRepository) Create(ctx context.Context, task tasksvc.Task) error {
	return t.db.WithContext(ctx).Create(&task).Error
}

func (t *taskRepository) Update(ctx context.Context, task tasksvc.Task) error {
	result := t.db.WithContext(ctx).
		Model(&tasksvc.Task{}).
		Where("id = ? AND owner_id = ?", task.ID, task.OwnerID).
		Select("title", "description", "priority", "due_date", "is_completed").
		Updates(&task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tasksvc.ErrTaskNotFound
	}
	return nil
}

func (t *taskRepository) Delete(ctx context.Context, ownerID, id string) error {
	result := t.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&tasksvc.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tasksvc.ErrTaskNotFound
	}
	return nil
}
