package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/example/task-tracker/client/coordinator"
	"github.com/example/task-tracker/client/remote"
	"github.com/example/task-tracker/client/session"
	"github.com/example/task-tracker/client/store"
	"github.com/rs/zerolog"
)

// Flags holds the global options.
type Flags struct {
	Server      string
	SessionFile string
	LogLevel    string
	Timeout     time.Duration
}

// deps is built once per invocation in the Before hook.
type deps struct {
	coord  *coordinator.Coordinator
	client *remote.Client
	tasks  *store.Store[store.TaskState]
	auth   *store.Store[store.AuthState]
	log    zerolog.Logger
}

func (rt *deps) init(flags *Flags, logger zerolog.Logger) error {
	rt.log = logger
	rt.tasks = store.NewTaskStore()
	rt.auth = store.NewAuthStore()
	rt.tasks.Subscribe(func(st store.TaskState) {
		logger.Debug().
			Int("tasks", len(st.Tasks)).
			Bool("loading", st.Loading).
			Str("error", st.Error).
			Msg("task state changed")
	})
	rt.auth.Subscribe(func(st store.AuthState) {
		logger.Debug().
			Bool("authenticated", st.Authenticated()).
			Bool("loading", st.Loading).
			Str("error", st.Error).
			Msg("session state changed")
	})

	tokens := session.NewFileStore(flags.SessionFile)
	rt.client = remote.New(flags.Server,
		remote.WithTimeout(flags.Timeout),
		remote.WithTokenSource(func() string { return rt.auth.State().Token }),
	)

	coord, err := coordinator.New(coordinator.Deps{
		Tasks:   rt.tasks,
		Auth:    rt.auth,
		TaskAPI: rt.client,
		AuthAPI: rt.client,
		Tokens:  tokens,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	rt.coord = coord

	restored, err := coord.Restore()
	if err != nil {
		logger.Warn().Err(err).Str("file", flags.SessionFile).Msg("ignoring unreadable session")
		return nil
	}
	logger.Debug().Bool("restored", restored).Str("server", flags.Server).Msg("client ready")
	return nil
}

// requireLogin fails early when there is no session to send.
func (rt *deps) requireLogin() error {
	if !rt.auth.State().Authenticated() {
		return fmt.Errorf("not logged in, run 'tasks login <username>' first")
	}
	return nil
}

// newLogger builds a console logger at level.
func newLogger(level string, out io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, err
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger().
		Level(lvl), nil
}

func defaultSessionFile() string {
	path, err := session.DefaultPath()
	if err != nil {
		return filepath.Join(".", ".tasks-session.yaml")
	}
	return path
}
