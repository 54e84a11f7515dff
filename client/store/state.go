// Package store holds the client's session state: the cached task
// collection and the auth session. State only changes through the pure
// reducers in this package; containers serialize dispatches and notify
// subscribers.
package store

import (
	"strings"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
)

// TempIDPrefix marks task ids assigned on the client before the server
// responds.
const TempIDPrefix = "temp-"

// IsTempID reports whether id is a client-side placeholder.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// TaskState is the cached task collection for one session. Tasks keep the
// server's order. Selected is a snapshot, not a pointer into Tasks.
type TaskState struct {
	Tasks    []task.Task
	Selected *task.Task
	Loading  bool
	Error    string
}

// NewTaskState returns the empty collection.
func NewTaskState() TaskState {
	return TaskState{Tasks: []task.Task{}}
}

// Clone returns a deep copy of s.
func (s TaskState) Clone() TaskState {
	out := s
	out.Tasks = cloneTasks(s.Tasks)
	if s.Selected != nil {
		sel := cloneTask(*s.Selected)
		out.Selected = &sel
	}
	return out
}

// Find returns the task with id and its index, or -1.
func (s TaskState) Find(id string) (task.Task, int) {
	for i, t := range s.Tasks {
		if t.ID == id {
			return t, i
		}
	}
	return task.Task{}, -1
}

// AuthState is the client's view of the login session. Authenticated is
// derived from the token and cannot be set on its own.
type AuthState struct {
	User    *user.Profile
	Token   string
	Loading bool
	Error   string
}

// Authenticated reports whether the session holds a token.
func (s AuthState) Authenticated() bool {
	return s.Token != ""
}

// Clone returns a deep copy of s.
func (s AuthState) Clone() AuthState {
	out := s
	out.User = cloneProfile(s.User)
	return out
}

func cloneProfile(p *user.Profile) *user.Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneTask(t task.Task) task.Task {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	return t
}

func cloneTasks(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	for i, t := range tasks {
		out[i] = cloneTask(t)
	}
	return out
}
