package store

import (
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
)

// Event is a state transition fed to a reducer.
type Event interface {
	Type() string
}

// FetchStarted begins a full refresh.
type FetchStarted struct{}

// FetchSucceeded carries the server's list in server order.
type FetchSucceeded struct {
	Tasks []task.Task
}

// FetchFailed reports a failed refresh.
type FetchFailed struct {
	Message string
}

// CreateStarted inserts an optimistic task under TempID. OpID names the
// create operation that owns it.
type CreateStarted struct {
	OpID   string
	TempID string
	Draft  task.Draft
	At     time.Time
}

// CreateSucceeded replaces the optimistic task with the server's record.
type CreateSucceeded struct {
	OpID   string
	TempID string
	Task   task.Task
}

// CreateFailed drops the optimistic task.
type CreateFailed struct {
	OpID    string
	TempID  string
	Message string
}

// UpdateStarted patches a task in place before the server answers.
type UpdateStarted struct {
	ID    string
	Patch task.Patch
}

// UpdateSucceeded overwrites a task with the server's record.
type UpdateSucceeded struct {
	Task task.Task
}

// UpdateFailed reports a failed update. The optimistic patch stays.
type UpdateFailed struct {
	ID      string
	Message string
}

// DeleteStarted removes a task before the server answers.
type DeleteStarted struct {
	ID string
}

// DeleteSucceeded confirms a deletion.
type DeleteSucceeded struct {
	ID string
}

// DeleteFailed reports a failed deletion. The task is not restored.
type DeleteFailed struct {
	ID      string
	Message string
}

// TaskSelected sets or clears the selected task snapshot.
type TaskSelected struct {
	Task *task.Task
}

// TaskErrorCleared clears the collection error.
type TaskErrorCleared struct{}

// TasksCleared resets the collection to empty.
type TasksCleared struct{}

func (FetchStarted) Type() string     { return "fetch_started" }
func (FetchSucceeded) Type() string   { return "fetch_succeeded" }
func (FetchFailed) Type() string      { return "fetch_failed" }
func (CreateStarted) Type() string    { return "create_started" }
func (CreateSucceeded) Type() string  { return "create_succeeded" }
func (CreateFailed) Type() string     { return "create_failed" }
func (UpdateStarted) Type() string    { return "update_started" }
func (UpdateSucceeded) Type() string  { return "update_succeeded" }
func (UpdateFailed) Type() string     { return "update_failed" }
func (DeleteStarted) Type() string    { return "delete_started" }
func (DeleteSucceeded) Type() string  { return "delete_succeeded" }
func (DeleteFailed) Type() string     { return "delete_failed" }
func (TaskSelected) Type() string     { return "task_selected" }
func (TaskErrorCleared) Type() string { return "task_error_cleared" }
func (TasksCleared) Type() string     { return "tasks_cleared" }

// LoginStarted begins a login.
type LoginStarted struct{}

// LoginSucceeded stores the issued token and profile.
type LoginSucceeded struct {
	Token string
	User  *user.Profile
}

// LoginFailed reports a failed login.
type LoginFailed struct {
	Message string
}

// RegisterStarted begins a registration.
type RegisterStarted struct{}

// RegisterSucceeded ends a registration. It does not log the user in.
type RegisterSucceeded struct {
	User *user.Profile
}

// RegisterFailed reports a failed registration.
type RegisterFailed struct {
	Message string
}

// CredentialsSet installs a token, for example one restored from disk.
type CredentialsSet struct {
	Token string
	User  *user.Profile
}

// LoggedOut drops the session.
type LoggedOut struct{}

// AuthErrorCleared clears the auth error.
type AuthErrorCleared struct{}

func (LoginStarted) Type() string      { return "login_started" }
func (LoginSucceeded) Type() string    { return "login_succeeded" }
func (LoginFailed) Type() string       { return "login_failed" }
func (RegisterStarted) Type() string   { return "register_started" }
func (RegisterSucceeded) Type() string { return "register_succeeded" }
func (RegisterFailed) Type() string    { return "register_failed" }
func (CredentialsSet) Type() string    { return "credentials_set" }
func (LoggedOut) Type() string         { return "logged_out" }
func (AuthErrorCleared) Type() string  { return "auth_error_cleared" }
