// Package coordinator sequences remote calls with store transitions. Each
// operation dispatches its started event, awaits the call, then dispatches
// succeeded or failed. Transitions happen whether or not the caller looks
// at the returned result.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/task-tracker/client/remote"
	"github.com/example/task-tracker/client/session"
	"github.com/example/task-tracker/client/store"
	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Default failure messages, used when neither the server nor the transport
// supplied one.
const (
	MsgFetchFailed    = "Failed to fetch tasks"
	MsgCreateFailed   = "Failed to create task"
	MsgUpdateFailed   = "Failed to update task"
	MsgDeleteFailed   = "Failed to delete task"
	MsgLoginFailed    = "Login failed"
	MsgRegisterFailed = "Registration failed"
)

// TaskAPI is the remote task client.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	CreateTask(ctx context.Context, draft task.Draft) (task.Task, error)
	UpdateTask(ctx context.Context, id string, patch task.Patch) (task.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// AuthAPI is the remote auth client.
type AuthAPI interface {
	Register(ctx context.Context, creds remote.Credentials) (*user.Profile, error)
	Login(ctx context.Context, username, password string) (remote.LoginResult, error)
}

// Failure is a settled operation that failed. Message is what the store
// recorded.
type Failure struct {
	Op      string
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Tasks   *store.Store[store.TaskState]
	Auth    *store.Store[store.AuthState]
	TaskAPI TaskAPI
	AuthAPI AuthAPI
	Tokens  session.TokenStore
	Logger  zerolog.Logger
}

// Coordinator runs client operations against the stores.
type Coordinator struct {
	tasks   *store.Store[store.TaskState]
	auth    *store.Store[store.AuthState]
	taskAPI TaskAPI
	authAPI AuthAPI
	tokens  session.TokenStore
	log     zerolog.Logger
	fetches singleflight.Group

	tempID func() string
	opID   func() string
	now    func() time.Time
}

// New creates a Coordinator.
func New(d Deps) (*Coordinator, error) {
	if d.Tasks == nil || d.Auth == nil || d.TaskAPI == nil || d.AuthAPI == nil || d.Tokens == nil {
		return nil, errors.New("coordinator: missing dependency")
	}
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	return &Coordinator{
		tasks:   d.Tasks,
		auth:    d.Auth,
		taskAPI: d.TaskAPI,
		authAPI: d.AuthAPI,
		tokens:  d.Tokens,
		log:     d.Logger.With().Str("component", "coordinator").Logger(),
		tempID:  func() string { return store.TempIDPrefix + gen() },
		opID:    uuid.NewString,
		now:     time.Now,
	}, nil
}

// Token returns the current session token, for use as a remote.TokenSource.
func (c *Coordinator) Token() string {
	return c.auth.State().Token
}

// FetchTasks replaces the collection with the server's list. Concurrent
// fetches share one request, which runs detached from any single caller:
// a caller whose ctx ends stops waiting without failing the others.
func (c *Coordinator) FetchTasks(ctx context.Context) ([]task.Task, error) {
	c.tasks.Dispatch(store.FetchStarted{})

	shared := context.WithoutCancel(ctx)
	ch := c.fetches.DoChan("list", func() (any, error) {
		return c.taskAPI.ListTasks(shared)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}
	if res.Shared {
		c.log.Debug().Msg("fetch joined an in-flight request")
	}
	if res.Err != nil {
		f := c.fail("fetch", res.Err, MsgFetchFailed)
		c.tasks.Dispatch(store.FetchFailed{Message: f.Message})
		return nil, f
	}

	tasks, _ := res.Val.([]task.Task)
	c.tasks.Dispatch(store.FetchSucceeded{Tasks: tasks})
	c.log.Debug().Int("count", len(tasks)).Msg("fetch settled")
	return tasks, nil
}

// CreateTask shows draft at the front of the collection at once and swaps
// in the server's record when it arrives.
func (c *Coordinator) CreateTask(ctx context.Context, draft task.Draft) (task.Task, error) {
	opID, tempID := c.opID(), c.tempID()
	c.tasks.Dispatch(store.CreateStarted{OpID: opID, TempID: tempID, Draft: draft, At: c.now()})

	created, err := c.taskAPI.CreateTask(ctx, draft)
	if err != nil {
		f := c.fail("create", err, MsgCreateFailed)
		c.tasks.Dispatch(store.CreateFailed{OpID: opID, TempID: tempID, Message: f.Message})
		return task.Task{}, f
	}

	c.tasks.Dispatch(store.CreateSucceeded{OpID: opID, TempID: tempID, Task: created})
	c.log.Debug().Str("op", opID).Str("task", created.ID).Msg("create settled")
	return created, nil
}

// UpdateTask patches the cached task at once and overwrites it with the
// server's record when it arrives. A failure keeps the patch.
func (c *Coordinator) UpdateTask(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	c.tasks.Dispatch(store.UpdateStarted{ID: id, Patch: patch})

	updated, err := c.taskAPI.UpdateTask(ctx, id, patch)
	if err != nil {
		f := c.fail("update", err, MsgUpdateFailed)
		c.tasks.Dispatch(store.UpdateFailed{ID: id, Message: f.Message})
		return task.Task{}, f
	}

	c.tasks.Dispatch(store.UpdateSucceeded{Task: updated})
	c.log.Debug().Str("task", id).Msg("update settled")
	return updated, nil
}

// DeleteTask drops the cached task at once. A failure does not restore it.
func (c *Coordinator) DeleteTask(ctx context.Context, id string) error {
	c.tasks.Dispatch(store.DeleteStarted{ID: id})

	if err := c.taskAPI.DeleteTask(ctx, id); err != nil {
		f := c.fail("delete", err, MsgDeleteFailed)
		c.tasks.Dispatch(store.DeleteFailed{ID: id, Message: f.Message})
		return f
	}

	c.tasks.Dispatch(store.DeleteSucceeded{ID: id})
	c.log.Debug().Str("task", id).Msg("delete settled")
	return nil
}

// Login authenticates and persists the issued token.
func (c *Coordinator) Login(ctx context.Context, username, password string) (*user.Profile, error) {
	c.auth.Dispatch(store.AuthErrorCleared{})
	c.auth.Dispatch(store.LoginStarted{})

	result, err := c.authAPI.Login(ctx, username, password)
	if err != nil {
		f := c.failure("login", err, MsgLoginFailed)
		c.log.Warn().Err(err).Str("username", username).Msg("login failed")
		c.auth.Dispatch(store.LoginFailed{Message: f.Message})
		return nil, f
	}

	if err := c.tokens.Save(result.Token); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist session token")
	}
	c.auth.Dispatch(store.LoginSucceeded{Token: result.Token, User: result.User})
	c.log.Debug().Str("username", username).Msg("login settled")
	return result.User, nil
}

// Register creates an account. The session stays logged out.
func (c *Coordinator) Register(ctx context.Context, creds remote.Credentials) (*user.Profile, error) {
	c.auth.Dispatch(store.RegisterStarted{})

	profile, err := c.authAPI.Register(ctx, creds)
	if err != nil {
		f := c.failure("register", err, MsgRegisterFailed)
		c.log.Warn().Err(err).Str("username", creds.Username).Msg("register failed")
		c.auth.Dispatch(store.RegisterFailed{Message: f.Message})
		return nil, f
	}

	c.auth.Dispatch(store.RegisterSucceeded{User: profile})
	c.log.Debug().Str("username", creds.Username).Msg("register settled")
	return profile, nil
}

// Logout forgets the persisted token and empties both stores.
func (c *Coordinator) Logout() error {
	err := c.tokens.Clear()
	c.auth.Dispatch(store.LoggedOut{})
	c.tasks.Dispatch(store.TasksCleared{})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Restore loads a persisted token into the session. It reports whether one
// was found.
func (c *Coordinator) Restore() (bool, error) {
	token, err := c.tokens.Read()
	if err != nil {
		return false, fmt.Errorf("failed to restore session: %w", err)
	}
	if token == "" {
		return false, nil
	}
	c.auth.Dispatch(store.CredentialsSet{Token: token})
	return true, nil
}

// fail normalizes a task operation failure. A 401 also ends the session.
func (c *Coordinator) fail(op string, err error, fallback string) *Failure {
	f := c.failure(op, err, fallback)
	c.log.Warn().Err(err).Str("op", op).Msg("task operation failed")
	if remote.IsUnauthorized(err) {
		c.expire()
	}
	return f
}

// expire drops a session the server no longer accepts.
func (c *Coordinator) expire() {
	if err := c.tokens.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("failed to clear rejected session token")
	}
	c.auth.Dispatch(store.LoggedOut{})
	c.log.Info().Msg("session rejected by server, logged out")
}

func (c *Coordinator) failure(op string, err error, fallback string) *Failure {
	return &Failure{Op: op, Message: failureMessage(err, fallback), Err: err}
}

// failureMessage prefers the server's message, then the transport's, then
// fallback.
func failureMessage(err error, fallback string) string {
	var rerr *remote.Error
	if errors.As(err, &rerr) {
		if rerr.Server != "" {
			return rerr.Server
		}
		if rerr.Err != nil && rerr.Err.Error() != "" {
			return rerr.Err.Error()
		}
		if rerr.Status != 0 {
			return rerr.Error()
		}
		return fallback
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
