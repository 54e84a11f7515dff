package task

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
	"gorm.io/gorm"
)

// ErrTaskNotFound is returned when a task is not found.
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository handles task persistence using GORM.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

// FindByID finds a task by ID regardless of owner.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	result := r.db.WithContext(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", result.Error)
	}
	return &task, nil
}

// ListByOwner returns the tasks owned by userID, newest first.
func (r *TaskRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", result.Error)
	}
	return tasks, nil
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Update writes every field of task, including a cleared description.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ?", task.ID).
		Select("title", "description", "status", "updated_at").
		Updates(task)
	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by ID.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
