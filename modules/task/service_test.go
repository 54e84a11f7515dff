package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/task-tracker/domain/apperror"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	alice = user.Identity{UserID: "user-a", Username: "alice"}
	bob   = user.Identity{UserID: "user-b", Username: "bob"}
)

// recordingSink captures published task changes.
type recordingSink struct {
	created []domain.Task
	updated []domain.Task
	deleted []domain.Task
}

func (s *recordingSink) TaskCreated(t domain.Task) { s.created = append(s.created, t) }
func (s *recordingSink) TaskUpdated(t domain.Task) { s.updated = append(s.updated, t) }
func (s *recordingSink) TaskDeleted(t domain.Task) { s.deleted = append(s.deleted, t) }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Task{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// setupTestService returns a service whose clock advances one second per
// call so creation order is stable.
func setupTestService(t *testing.T) (*TaskService, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	svc := NewTaskService(NewTaskRepository(setupTestDB(t)), sink)

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, sink
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.Status) *domain.Status { return &s }

func mustCreate(t *testing.T, svc *TaskService, identity user.Identity, title string) *domain.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), identity, domain.Draft{Title: title})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", title, err)
	}
	return task
}

func TestTaskService_Create(t *testing.T) {
	svc, sink := setupTestService(t)

	task, err := svc.Create(context.Background(), alice, domain.Draft{
		Title:       "  Write report  ",
		Description: strPtr("  quarterly numbers "),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if task.ID == "" {
		t.Error("Create() returned task without ID")
	}
	if task.Title != "Write report" {
		t.Errorf("Create() title = %q, want %q", task.Title, "Write report")
	}
	if task.Description == nil || *task.Description != "quarterly numbers" {
		t.Errorf("Create() description = %v, want %q", task.Description, "quarterly numbers")
	}
	if task.Status != domain.StatusPending {
		t.Errorf("Create() status = %q, want %q", task.Status, domain.StatusPending)
	}
	if task.UserID != alice.UserID {
		t.Errorf("Create() userID = %q, want %q", task.UserID, alice.UserID)
	}
	if len(sink.created) != 1 || sink.created[0].ID != task.ID {
		t.Errorf("TaskCreated events = %+v, want one for %s", sink.created, task.ID)
	}
}

func TestTaskService_CreateValidation(t *testing.T) {
	svc, sink := setupTestService(t)

	tests := []struct {
		name    string
		draft   domain.Draft
		wantMsg string
	}{
		{name: "missing title", draft: domain.Draft{}, wantMsg: "Missing required fields: title"},
		{name: "short title", draft: domain.Draft{Title: "  ab  "}, wantMsg: "Title must be at least 3 characters long"},
		{name: "bad status", draft: domain.Draft{Title: "Valid", Status: "DONE"}, wantMsg: "Status must be either PENDING or COMPLETED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), alice, tt.draft)
			var appErr *apperror.Error
			if !errors.As(err, &appErr) {
				t.Fatalf("Create() error = %v, want *apperror.Error", err)
			}
			if appErr.Kind != apperror.KindValidation || appErr.Message != tt.wantMsg {
				t.Errorf("Create() = %v, want validation %q", appErr, tt.wantMsg)
			}
		})
	}

	if len(sink.created) != 0 {
		t.Errorf("TaskCreated events = %d, want 0", len(sink.created))
	}
}

func TestTaskService_ListNewestFirst(t *testing.T) {
	svc, _ := setupTestService(t)

	first := mustCreate(t, svc, alice, "First task")
	second := mustCreate(t, svc, alice, "Second task")
	third := mustCreate(t, svc, alice, "Third task")

	tasks, err := svc.List(context.Background(), alice)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{third.ID, second.ID, first.ID}
	if len(tasks) != len(want) {
		t.Fatalf("List() returned %d tasks, want %d", len(tasks), len(want))
	}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("List()[%d] = %s, want %s", i, tasks[i].ID, id)
		}
	}
}

func TestTaskService_ListEmpty(t *testing.T) {
	svc, _ := setupTestService(t)

	tasks, err := svc.List(context.Background(), alice)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", tasks)
	}
}

func TestTaskService_OwnershipIsolation(t *testing.T) {
	svc, sink := setupTestService(t)
	ctx := context.Background()

	task := mustCreate(t, svc, alice, "Alice's task")

	bobTasks, err := svc.List(ctx, bob)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for _, bt := range bobTasks {
		if bt.ID == task.ID {
			t.Fatalf("List(bob) contains alice's task %s", task.ID)
		}
	}

	_, err = svc.Update(ctx, bob, task.ID, domain.Patch{Title: strPtr("Hijacked")})
	if got := apperror.KindOf(err); got != apperror.KindAuthorization {
		t.Errorf("Update() by non-owner kind = %q, want %q", got, apperror.KindAuthorization)
	}

	err = svc.Delete(ctx, bob, task.ID)
	if got := apperror.KindOf(err); got != apperror.KindAuthorization {
		t.Errorf("Delete() by non-owner kind = %q, want %q", got, apperror.KindAuthorization)
	}

	aliceTasks, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(aliceTasks) != 1 || aliceTasks[0].Title != "Alice's task" {
		t.Errorf("List(alice) = %+v, want untouched task", aliceTasks)
	}
	if len(sink.updated) != 0 || len(sink.deleted) != 0 {
		t.Errorf("denied operations published events: updated=%d deleted=%d", len(sink.updated), len(sink.deleted))
	}
}

func TestTaskService_NotFoundBeforeOwnership(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, bob, "missing-id", domain.Patch{Title: strPtr("Anything")})
	if got := apperror.KindOf(err); got != apperror.KindNotFound {
		t.Errorf("Update() missing kind = %q, want %q", got, apperror.KindNotFound)
	}

	err = svc.Delete(ctx, bob, "missing-id")
	if got := apperror.KindOf(err); got != apperror.KindNotFound {
		t.Errorf("Delete() missing kind = %q, want %q", got, apperror.KindNotFound)
	}
}

func TestTaskService_OwnershipBeforeValidation(t *testing.T) {
	svc, _ := setupTestService(t)

	task := mustCreate(t, svc, alice, "Alice's task")

	_, err := svc.Update(context.Background(), bob, task.ID, domain.Patch{})
	if got := apperror.KindOf(err); got != apperror.KindAuthorization {
		t.Errorf("Update() kind = %q, want %q", got, apperror.KindAuthorization)
	}
}

func TestTaskService_Update(t *testing.T) {
	svc, sink := setupTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice, domain.Draft{Title: "Original", Description: strPtr("details")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := svc.Update(ctx, alice, created.ID, domain.Patch{Status: statusPtr(domain.StatusCompleted)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Errorf("Update() status = %q, want %q", updated.Status, domain.StatusCompleted)
	}
	if updated.Title != "Original" {
		t.Errorf("Update() title = %q, want unchanged %q", updated.Title, "Original")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("Update() updatedAt = %v, want after %v", updated.UpdatedAt, created.UpdatedAt)
	}

	cleared, err := svc.Update(ctx, alice, created.ID, domain.Patch{Description: strPtr("   ")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if cleared.Description != nil {
		t.Errorf("Update() description = %q, want nil", *cleared.Description)
	}

	tasks, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("List() returned %d tasks, want 1", len(tasks))
	}
	if tasks[0].Description != nil || tasks[0].Status != domain.StatusCompleted {
		t.Errorf("stored task = %+v, want completed with no description", tasks[0])
	}
	if len(sink.updated) != 2 {
		t.Errorf("TaskUpdated events = %d, want 2", len(sink.updated))
	}

	_, err = svc.Update(ctx, alice, created.ID, domain.Patch{})
	if got := apperror.KindOf(err); got != apperror.KindValidation {
		t.Errorf("Update() empty patch kind = %q, want %q", got, apperror.KindValidation)
	}
}

func TestTaskService_Delete(t *testing.T) {
	svc, sink := setupTestService(t)
	ctx := context.Background()

	keep := mustCreate(t, svc, alice, "Keep me")
	drop := mustCreate(t, svc, alice, "Drop me")

	if err := svc.Delete(ctx, alice, drop.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	tasks, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != keep.ID {
		t.Errorf("List() after delete = %+v, want only %s", tasks, keep.ID)
	}
	if len(sink.deleted) != 1 || sink.deleted[0].Title != "Drop me" {
		t.Errorf("TaskDeleted events = %+v, want one for %q", sink.deleted, "Drop me")
	}

	err = svc.Delete(ctx, alice, drop.ID)
	if got := apperror.KindOf(err); got != apperror.KindNotFound {
		t.Errorf("second Delete() kind = %q, want %q", got, apperror.KindNotFound)
	}
}

func TestTaskService_RequiresIdentity(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.List(ctx, user.Identity{}); apperror.KindOf(err) != apperror.KindAuthentication {
		t.Errorf("List() without identity error = %v", err)
	}
	if _, err := svc.Create(ctx, user.Identity{}, domain.Draft{Title: "Task"}); apperror.KindOf(err) != apperror.KindAuthentication {
		t.Errorf("Create() without identity error = %v", err)
	}
}

func TestToFault_HidesStorageErrors(t *testing.T) {
	fault := toFault("list-tasks", errors.New("database is locked"))
	if fault.Kind != apperror.KindInternal || fault.Message != "Internal server error" {
		t.Errorf("toFault() = %+v, want generic internal fault", fault)
	}

	denied := apperror.Forbidden("nope")
	if got := toFault("update-task", denied); got != denied {
		t.Errorf("toFault() = %v, want %v", got, denied)
	}
}
