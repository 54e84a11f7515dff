package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/task-tracker/client/remote"
	"github.com/example/task-tracker/client/session"
	"github.com/example/task-tracker/client/store"
	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTaskAPI struct {
	list   func(ctx context.Context) ([]task.Task, error)
	create func(ctx context.Context, draft task.Draft) (task.Task, error)
	update func(ctx context.Context, id string, patch task.Patch) (task.Task, error)
	delete func(ctx context.Context, id string) error
}

func (f *fakeTaskAPI) ListTasks(ctx context.Context) ([]task.Task, error) {
	return f.list(ctx)
}

func (f *fakeTaskAPI) CreateTask(ctx context.Context, draft task.Draft) (task.Task, error) {
	return f.create(ctx, draft)
}

func (f *fakeTaskAPI) UpdateTask(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	return f.update(ctx, id, patch)
}

func (f *fakeTaskAPI) DeleteTask(ctx context.Context, id string) error {
	return f.delete(ctx, id)
}

type fakeAuthAPI struct {
	register func(ctx context.Context, creds remote.Credentials) (*user.Profile, error)
	login    func(ctx context.Context, username, password string) (remote.LoginResult, error)
}

func (f *fakeAuthAPI) Register(ctx context.Context, creds remote.Credentials) (*user.Profile, error) {
	return f.register(ctx, creds)
}

func (f *fakeAuthAPI) Login(ctx context.Context, username, password string) (remote.LoginResult, error) {
	return f.login(ctx, username, password)
}

type harness struct {
	c       *Coordinator
	tasks   *store.Store[store.TaskState]
	auth    *store.Store[store.AuthState]
	taskAPI *fakeTaskAPI
	authAPI *fakeAuthAPI
	tokens  *session.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		tasks:   store.NewTaskStore(),
		auth:    store.NewAuthStore(),
		taskAPI: &fakeTaskAPI{},
		authAPI: &fakeAuthAPI{},
		tokens:  session.NewMemoryStore(),
	}
	c, err := New(Deps{
		Tasks:   h.tasks,
		Auth:    h.auth,
		TaskAPI: h.taskAPI,
		AuthAPI: h.authAPI,
		Tokens:  h.tokens,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	h.c = c
	return h
}

func sample(id, title string) task.Task {
	return task.Task{ID: id, Title: title, Status: task.StatusPending, UserID: "u1"}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestFetchTasks(t *testing.T) {
	h := newHarness(t)
	list := []task.Task{sample("t2", "Second"), sample("t1", "First")}
	h.taskAPI.list = func(context.Context) ([]task.Task, error) {
		assert.True(t, h.tasks.State().Loading, "loading while in flight")
		return list, nil
	}

	got, err := h.c.FetchTasks(context.Background())

	require.NoError(t, err)
	assert.Equal(t, list, got)
	assert.Equal(t, list, h.tasks.State().Tasks)
	assert.False(t, h.tasks.State().Loading)
}

func TestFetchTasks_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "server message wins",
			err:  &remote.Error{Status: 500, Server: "Internal server error", Err: errors.New("ignored")},
			want: "Internal server error",
		},
		{
			name: "transport message",
			err:  &remote.Error{Err: errors.New("dial tcp: connection refused")},
			want: "dial tcp: connection refused",
		},
		{
			name: "bare status",
			err:  &remote.Error{Status: 502},
			want: "request failed with status code 502",
		},
		{
			name: "nothing to go on",
			err:  &remote.Error{},
			want: MsgFetchFailed,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.tasks.Dispatch(store.FetchSucceeded{Tasks: []task.Task{sample("t1", "Visible")}})
			h.taskAPI.list = func(context.Context) ([]task.Task, error) { return nil, tt.err }

			_, err := h.c.FetchTasks(context.Background())

			var f *Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, tt.want, f.Message)
			assert.Equal(t, tt.want, h.tasks.State().Error)
			assert.Len(t, h.tasks.State().Tasks, 1, "visible tasks survive a failed refresh")
		})
	}
}

func TestFetchTasks_ConcurrentCallersShareOneRequest(t *testing.T) {
	h := newHarness(t)
	list := []task.Task{sample("t1", "First")}

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	h.taskAPI.list = func(ctx context.Context) ([]task.Task, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return list, ctx.Err()
	}

	var starts atomic.Int32
	h.tasks.Subscribe(func(st store.TaskState) {
		if st.Loading {
			starts.Add(1)
		}
	})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := h.c.FetchTasks(firstCtx)
		firstDone <- err
	}()
	<-entered

	secondDone := make(chan error, 1)
	var secondTasks []task.Task
	go func() {
		var err error
		secondTasks, err = h.c.FetchTasks(context.Background())
		secondDone <- err
	}()
	require.Eventually(t, func() bool { return starts.Load() >= 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case err := <-secondDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, list, secondTasks)
	st := h.tasks.State()
	assert.Equal(t, list, st.Tasks)
	assert.Empty(t, st.Error)
	assert.False(t, st.Loading)
}

func TestFetchTasks_SequentialCallsEachReachServer(t *testing.T) {
	h := newHarness(t)
	var calls atomic.Int32
	h.taskAPI.list = func(context.Context) ([]task.Task, error) {
		calls.Add(1)
		return []task.Task{}, nil
	}

	for i := 0; i < 2; i++ {
		_, err := h.c.FetchTasks(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(2), calls.Load())
}

func TestCreateTask_OptimisticThenConfirmed(t *testing.T) {
	h := newHarness(t)
	created := sample("t1", "New Task")
	h.taskAPI.create = func(_ context.Context, draft task.Draft) (task.Task, error) {
		st := h.tasks.State()
		require.Len(t, st.Tasks, 1)
		assert.True(t, store.IsTempID(st.Tasks[0].ID))
		assert.Equal(t, draft.Title, st.Tasks[0].Title)
		return created, nil
	}

	got, err := h.c.CreateTask(context.Background(), task.Draft{Title: "New Task"})

	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, []task.Task{created}, h.tasks.State().Tasks)
}

func TestCreateTask_FailureRemovesPlaceholder(t *testing.T) {
	h := newHarness(t)
	before := []task.Task{sample("t1", "Existing")}
	h.tasks.Dispatch(store.FetchSucceeded{Tasks: before})
	h.taskAPI.create = func(context.Context, task.Draft) (task.Task, error) {
		return task.Task{}, &remote.Error{Status: 400, Server: "Title must be at least 3 characters long"}
	}

	_, err := h.c.CreateTask(context.Background(), task.Draft{Title: "ab"})

	require.Error(t, err)
	assert.Equal(t, before, h.tasks.State().Tasks)
	assert.Equal(t, "Title must be at least 3 characters long", h.tasks.State().Error)
}

func TestCreateTask_TempIDsAreUnique(t *testing.T) {
	h := newHarness(t)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := h.c.tempID()
		assert.True(t, store.IsTempID(id))
		assert.False(t, seen[id], "duplicate temp id %s", id)
		seen[id] = true
	}
}

func TestUpdateTask_FailureKeepsPatch(t *testing.T) {
	h := newHarness(t)
	h.tasks.Dispatch(store.FetchSucceeded{Tasks: []task.Task{sample("t1", "Old")}})
	title := "Patched"
	h.taskAPI.update = func(context.Context, string, task.Patch) (task.Task, error) {
		assert.Equal(t, "Patched", h.tasks.State().Tasks[0].Title, "patch visible while in flight")
		return task.Task{}, &remote.Error{Status: 403, Server: "You do not have permission to update this task"}
	}

	_, err := h.c.UpdateTask(context.Background(), "t1", task.Patch{Title: &title})

	require.Error(t, err)
	st := h.tasks.State()
	assert.Equal(t, "Patched", st.Tasks[0].Title)
	assert.Equal(t, "You do not have permission to update this task", st.Error)
}

func TestUpdateTask_ServerRecordWins(t *testing.T) {
	h := newHarness(t)
	h.tasks.Dispatch(store.FetchSucceeded{Tasks: []task.Task{sample("t1", "Old")}})
	title := "  Trimmed by server  "
	confirmed := sample("t1", "Trimmed by server")
	h.taskAPI.update = func(context.Context, string, task.Patch) (task.Task, error) { return confirmed, nil }

	_, err := h.c.UpdateTask(context.Background(), "t1", task.Patch{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, []task.Task{confirmed}, h.tasks.State().Tasks)
}

func TestDeleteTask_RemovesBeforeSettlement(t *testing.T) {
	h := newHarness(t)
	keep := sample("t1", "Keep")
	h.tasks.Dispatch(store.FetchSucceeded{Tasks: []task.Task{keep, sample("t2", "Drop")}})

	release := make(chan struct{})
	done := make(chan error, 1)
	h.taskAPI.delete = func(context.Context, string) error {
		<-release
		return nil
	}

	go func() { done <- h.c.DeleteTask(context.Background(), "t2") }()

	require.Eventually(t, func() bool {
		return len(h.tasks.State().Tasks) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, []task.Task{keep}, h.tasks.State().Tasks)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []task.Task{keep}, h.tasks.State().Tasks)
}

func TestDeleteTask_FailureDoesNotRestore(t *testing.T) {
	h := newHarness(t)
	h.tasks.Dispatch(store.FetchSucceeded{Tasks: []task.Task{sample("t1", "Gone")}})
	h.taskAPI.delete = func(context.Context, string) error { return &remote.Error{} }

	err := h.c.DeleteTask(context.Background(), "t1")

	require.Error(t, err)
	assert.Empty(t, h.tasks.State().Tasks)
	assert.Equal(t, MsgDeleteFailed, h.tasks.State().Error)
}

func TestTaskCall_UnauthorizedEndsSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tokens.Save("expired"))
	_, err := h.c.Restore()
	require.NoError(t, err)
	require.True(t, h.auth.State().Authenticated())

	h.taskAPI.list = func(context.Context) ([]task.Task, error) {
		return nil, &remote.Error{Status: 401, Server: "Invalid or expired token"}
	}

	_, err = h.c.FetchTasks(context.Background())

	require.Error(t, err)
	assert.False(t, h.auth.State().Authenticated())
	token, _ := h.tokens.Read()
	assert.Empty(t, token)
	assert.Equal(t, "Invalid or expired token", h.tasks.State().Error)
}

func TestLogin_PersistsToken(t *testing.T) {
	h := newHarness(t)
	h.auth.Dispatch(store.LoginFailed{Message: "stale"})
	profile := &user.Profile{ID: "u1", Username: "alice"}
	h.authAPI.login = func(_ context.Context, username, password string) (remote.LoginResult, error) {
		assert.Empty(t, h.auth.State().Error, "error cleared before the call")
		assert.True(t, h.auth.State().Loading)
		return remote.LoginResult{Token: "jwt", User: profile}, nil
	}

	got, err := h.c.Login(context.Background(), "alice", "secret")

	require.NoError(t, err)
	assert.Equal(t, profile, got)
	st := h.auth.State()
	assert.True(t, st.Authenticated())
	assert.Equal(t, "jwt", st.Token)
	assert.Equal(t, "jwt", h.c.Token())
	token, _ := h.tokens.Read()
	assert.Equal(t, "jwt", token)
}

func TestLogin_Failure(t *testing.T) {
	h := newHarness(t)
	h.authAPI.login = func(context.Context, string, string) (remote.LoginResult, error) {
		return remote.LoginResult{}, &remote.Error{Status: 401, Server: "Invalid username or password"}
	}

	_, err := h.c.Login(context.Background(), "alice", "wrong")

	assert.EqualError(t, err, "Invalid username or password")
	assert.False(t, h.auth.State().Authenticated())
	assert.Equal(t, "Invalid username or password", h.auth.State().Error)
	token, _ := h.tokens.Read()
	assert.Empty(t, token)
}

func TestRegister_DoesNotLogIn(t *testing.T) {
	h := newHarness(t)
	h.authAPI.register = func(_ context.Context, creds remote.Credentials) (*user.Profile, error) {
		return &user.Profile{ID: "u1", Username: creds.Username}, nil
	}

	profile, err := h.c.Register(context.Background(), remote.Credentials{Username: "alice", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.False(t, h.auth.State().Authenticated())
	assert.False(t, h.auth.State().Loading)
}

func TestRegister_FailureFallsBackToDefault(t *testing.T) {
	h := newHarness(t)
	h.authAPI.register = func(context.Context, remote.Credentials) (*user.Profile, error) {
		return nil, &remote.Error{}
	}

	_, err := h.c.Register(context.Background(), remote.Credentials{Username: "alice"})

	assert.EqualError(t, err, MsgRegisterFailed)
	assert.Equal(t, MsgRegisterFailed, h.auth.State().Error)
}

func TestLogout_ResetsEverything(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tokens.Save("jwt"))
	h.auth.Dispatch(store.LoginSucceeded{Token: "jwt", User: &user.Profile{ID: "u1"}})
	h.tasks.Dispatch(store.FetchSucceeded{Tasks: []task.Task{sample("t1", "Mine")}})

	require.NoError(t, h.c.Logout())

	assert.Equal(t, store.AuthState{}, h.auth.State())
	assert.Equal(t, store.NewTaskState(), h.tasks.State())
	token, _ := h.tokens.Read()
	assert.Empty(t, token)
}

func TestRestore_NoToken(t *testing.T) {
	h := newHarness(t)

	found, err := h.c.Restore()

	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, h.auth.State().Authenticated())
}
