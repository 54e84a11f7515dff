package task

import (
	"github.com/example/task-tracker/domain/apperror"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
)

// Service names registered by the task module.
const (
	ServiceListTasks  = "list-tasks"
	ServiceCreateTask = "create-task"
	ServiceUpdateTask = "update-task"
	ServiceDeleteTask = "delete-task"
)

// ListTasksRequest represents a request to list the caller's tasks.
type ListTasksRequest struct {
	Identity user.Identity `json:"identity"`
}

// ListTasksResponse represents a list of tasks.
type ListTasksResponse struct {
	Tasks []domain.Task   `json:"tasks"`
	Fault *apperror.Error `json:"fault,omitempty"`
}

// CreateTaskRequest represents a request to create a task.
type CreateTaskRequest struct {
	Identity user.Identity `json:"identity"`
	Draft    domain.Draft  `json:"draft"`
}

// UpdateTaskRequest represents a request to update a task.
type UpdateTaskRequest struct {
	Identity user.Identity `json:"identity"`
	TaskID   string        `json:"taskId"`
	Patch    domain.Patch  `json:"patch"`
}

// TaskResponse represents a single task result.
type TaskResponse struct {
	Task  *domain.Task    `json:"task,omitempty"`
	Fault *apperror.Error `json:"fault,omitempty"`
}

// DeleteTaskRequest represents a request to delete a task.
type DeleteTaskRequest struct {
	Identity user.Identity `json:"identity"`
	TaskID   string        `json:"taskId"`
}

// DeleteTaskResponse represents the result of a deletion.
type DeleteTaskResponse struct {
	ID    string          `json:"id,omitempty"`
	Fault *apperror.Error `json:"fault,omitempty"`
}
