package task

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/example/task-tracker/domain/apperror"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
	"github.com/google/uuid"
)

var errNoIdentity = apperror.Unauthenticated("Unauthorized")

// EventSink is told about every stored change. Implementations must not
// block and must not fail the operation.
type EventSink interface {
	TaskCreated(task domain.Task)
	TaskUpdated(task domain.Task)
	TaskDeleted(task domain.Task)
}

type nopSink struct{}

func (nopSink) TaskCreated(domain.Task) {}
func (nopSink) TaskUpdated(domain.Task) {}
func (nopSink) TaskDeleted(domain.Task) {}

// TaskService implements task operations scoped to an authenticated identity.
// List and create scope by owner in the query; update and delete go through
// Authorize after the task is found.
type TaskService struct {
	repo   *TaskRepository
	events EventSink
	now    func() time.Time
}

// NewTaskService creates a new TaskService. A nil sink drops events.
func NewTaskService(repo *TaskRepository, events EventSink) *TaskService {
	if events == nil {
		events = nopSink{}
	}
	return &TaskService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// List returns the caller's tasks, newest first.
func (s *TaskService) List(ctx context.Context, identity user.Identity) ([]domain.Task, error) {
	if identity.UserID == "" {
		return nil, errNoIdentity
	}
	return s.repo.ListByOwner(ctx, identity.UserID)
}

// Create stores a new task owned by the caller.
func (s *TaskService) Create(ctx context.Context, identity user.Identity, draft domain.Draft) (*domain.Task, error) {
	if identity.UserID == "" {
		return nil, errNoIdentity
	}
	draft, verr := domain.NormalizeDraft(draft)
	if verr != nil {
		return nil, verr
	}

	now := s.now()
	task := &domain.Task{
		ID:          uuid.New().String(),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		UserID:      identity.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.events.TaskCreated(*task)
	return task, nil
}

// Update applies patch to a task the caller owns.
func (s *TaskService) Update(ctx context.Context, identity user.Identity, taskID string, patch domain.Patch) (*domain.Task, error) {
	existing, err := s.owned(ctx, identity, taskID, ActionUpdate)
	if err != nil {
		return nil, err
	}

	patch, verr := domain.NormalizePatch(patch)
	if verr != nil {
		return nil, verr
	}

	updated := existing.Apply(patch)
	updated.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, apperror.NotFound("Task")
		}
		return nil, err
	}

	s.events.TaskUpdated(updated)
	return &updated, nil
}

// Delete removes a task the caller owns.
func (s *TaskService) Delete(ctx context.Context, identity user.Identity, taskID string) error {
	existing, err := s.owned(ctx, identity, taskID, ActionDelete)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return apperror.NotFound("Task")
		}
		return err
	}

	s.events.TaskDeleted(*existing)
	return nil
}

// owned loads a task and checks the caller may act on it. Missing tasks are
// reported before ownership.
func (s *TaskService) owned(ctx context.Context, identity user.Identity, taskID string, action Action) (*domain.Task, error) {
	if identity.UserID == "" {
		return nil, errNoIdentity
	}

	existing, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, apperror.NotFound("Task")
		}
		return nil, err
	}

	if denied := Authorize(identity, existing.UserID, action); denied != nil {
		log.Printf("[task] %s denied: user %s is not the owner of task %s", action, identity.UserID, taskID)
		return nil, denied
	}
	return existing, nil
}
