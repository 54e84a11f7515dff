package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort defines the task operations other modules use. Domain failures are
// returned as *apperror.Error.
type TaskPort interface {
	ListTasks(ctx context.Context, identity user.Identity) ([]domain.Task, error)
	CreateTask(ctx context.Context, identity user.Identity, draft domain.Draft) (*domain.Task, error)
	UpdateTask(ctx context.Context, identity user.Identity, taskID string, patch domain.Patch) (*domain.Task, error)
	DeleteTask(ctx context.Context, identity user.Identity, taskID string) error
}

// TaskAdapter implements TaskPort over the task module's services.
type TaskAdapter struct {
	container mono.ServiceContainer
}

var _ TaskPort = (*TaskAdapter)(nil)

func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	return &TaskAdapter{container: container}
}

func (a *TaskAdapter) ListTasks(ctx context.Context, identity user.Identity) ([]domain.Task, error) {
	req := ListTasksRequest{Identity: identity}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceListTasks, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks request failed: %w", err)
	}
	if resp.Fault != nil {
		return nil, resp.Fault
	}
	if resp.Tasks == nil {
		resp.Tasks = []domain.Task{}
	}
	return resp.Tasks, nil
}

func (a *TaskAdapter) CreateTask(ctx context.Context, identity user.Identity, draft domain.Draft) (*domain.Task, error) {
	req := CreateTaskRequest{Identity: identity, Draft: draft}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceCreateTask, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("create-task request failed: %w", err)
	}
	if resp.Fault != nil {
		return nil, resp.Fault
	}
	return resp.Task, nil
}

func (a *TaskAdapter) UpdateTask(ctx context.Context, identity user.Identity, taskID string, patch domain.Patch) (*domain.Task, error) {
	req := UpdateTaskRequest{Identity: identity, TaskID: taskID, Patch: patch}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceUpdateTask, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("update-task request failed: %w", err)
	}
	if resp.Fault != nil {
		return nil, resp.Fault
	}
	return resp.Task, nil
}

func (a *TaskAdapter) DeleteTask(ctx context.Context, identity user.Identity, taskID string) error {
	req := DeleteTaskRequest{Identity: identity, TaskID: taskID}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceDeleteTask, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fmt.Errorf("delete-task request failed: %w", err)
	}
	if resp.Fault != nil {
		return resp.Fault
	}
	return nil
}
