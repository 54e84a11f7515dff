package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/example/task-tracker/domain/apperror"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TaskModule owns task storage and serves task operations.
type TaskModule struct {
	db       *gorm.DB
	service  *TaskService
	dbPath   string
	eventBus mono.EventBus
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule configured from the environment.
func NewModule() *TaskModule {
	dbPath := os.Getenv("TASKS_DB_PATH")
	if dbPath == "" {
		dbPath = "tasks.db"
	}
	return &TaskModule{
		dbPath: dbPath,
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) Start(_ context.Context) error {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.Task{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var sink EventSink
	if m.eventBus != nil {
		sink = &busSink{bus: m.eventBus}
	} else {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	m.service = NewTaskService(NewTaskRepository(db), sink)

	log.Printf("[task] Module started (database: %s)", m.dbPath)
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health pings the task database.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get database connection: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"database": m.dbPath},
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListTasks, json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListTasks, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateTask, json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdateTask, json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdateTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteTask, json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeleteTask, err)
	}

	log.Printf("[task] Registered services: list-tasks, create-task, update-task, delete-task")
	return nil
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.List(ctx, req.Identity)
	if err != nil {
		return ListTasksResponse{Fault: toFault("list-tasks", err)}, nil
	}
	return ListTasksResponse{Tasks: tasks}, nil
}

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Create(ctx, req.Identity, req.Draft)
	if err != nil {
		return TaskResponse{Fault: toFault("create-task", err)}, nil
	}
	return TaskResponse{Task: task}, nil
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Update(ctx, req.Identity, req.TaskID, req.Patch)
	if err != nil {
		return TaskResponse{Fault: toFault("update-task", err)}, nil
	}
	return TaskResponse{Task: task}, nil
}

func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.Identity, req.TaskID); err != nil {
		return DeleteTaskResponse{Fault: toFault("delete-task", err)}, nil
	}
	return DeleteTaskResponse{ID: req.TaskID}, nil
}

func toFault(op string, err error) *apperror.Error {
	fault := apperror.As(err)
	if fault.Kind == apperror.KindInternal {
		log.Printf("[task] %s failed: %v", op, err)
	}
	return fault
}

// busSink publishes task changes on the mono event bus. Publishing is
// best-effort.
type busSink struct {
	bus mono.EventBus
}

func (s *busSink) TaskCreated(t domain.Task) {
	event := events.TaskCreatedEvent{
		TaskID:    t.ID,
		Title:     t.Title,
		Status:    string(t.Status),
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt,
	}
	if err := events.TaskCreatedV1.Publish(s.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", t.ID, err)
	}
}

func (s *busSink) TaskUpdated(t domain.Task) {
	event := events.TaskUpdatedEvent{
		TaskID:    t.ID,
		Title:     t.Title,
		Status:    string(t.Status),
		UserID:    t.UserID,
		UpdatedAt: t.UpdatedAt,
	}
	if err := events.TaskUpdatedV1.Publish(s.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskUpdated event for task %s: %v", t.ID, err)
	}
}

func (s *busSink) TaskDeleted(t domain.Task) {
	event := events.TaskDeletedEvent{
		TaskID:    t.ID,
		Title:     t.Title,
		UserID:    t.UserID,
		DeletedAt: time.Now(),
	}
	if err := events.TaskDeletedV1.Publish(s.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", t.ID, err)
	}
}
