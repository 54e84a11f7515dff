package store

import (
	"github.com/example/task-tracker/domain/task"
)

// ReduceTasks returns the collection state after event. It never mutates s
// and never blocks; unknown events return s unchanged.
func ReduceTasks(s TaskState, event Event) TaskState {
	switch e := event.(type) {
	case FetchStarted:
		return reduceFetchStarted(s)
	case FetchSucceeded:
		return reduceFetchSucceeded(s, e)
	case FetchFailed:
		return settleWithError(s, e.Message)
	case CreateStarted:
		return reduceCreateStarted(s, e)
	case CreateSucceeded:
		return reduceCreateSucceeded(s, e)
	case CreateFailed:
		return reduceCreateFailed(s, e)
	case UpdateStarted:
		return reduceUpdateStarted(s, e)
	case UpdateSucceeded:
		return reduceUpdateSucceeded(s, e)
	case UpdateFailed:
		return settleWithError(s, e.Message)
	case DeleteStarted:
		return reduceDeleteStarted(s, e)
	case DeleteSucceeded:
		s.Loading = false
		s.Error = ""
		return s
	case DeleteFailed:
		return settleWithError(s, e.Message)
	case TaskSelected:
		return reduceTaskSelected(s, e)
	case TaskErrorCleared:
		s.Error = ""
		return s
	case TasksCleared:
		return NewTaskState()
	default:
		return s
	}
}

func reduceFetchStarted(s TaskState) TaskState {
	s.Loading = true
	s.Error = ""
	return s
}

func reduceFetchSucceeded(s TaskState, e FetchSucceeded) TaskState {
	s.Tasks = cloneTasks(e.Tasks)
	s.Loading = false
	s.Error = ""
	return s
}

// settleWithError ends an operation with message and leaves the collection
// as it is.
func settleWithError(s TaskState, message string) TaskState {
	s.Loading = false
	s.Error = message
	return s
}

func reduceCreateStarted(s TaskState, e CreateStarted) TaskState {
	status := e.Draft.Status
	if status == "" {
		status = task.StatusPending
	}
	placeholder := cloneTask(task.Task{
		ID:          e.TempID,
		Title:       e.Draft.Title,
		Description: e.Draft.Description,
		Status:      status,
		CreatedAt:   e.At,
		UpdatedAt:   e.At,
	})

	tasks := make([]task.Task, 0, len(s.Tasks)+1)
	tasks = append(tasks, placeholder)
	for _, t := range s.Tasks {
		if t.ID != e.TempID {
			tasks = append(tasks, t)
		}
	}
	s.Tasks = tasks
	s.Loading = true
	s.Error = ""
	return s
}

// reduceCreateSucceeded swaps the placeholder owned by the operation for the
// server record. If a refresh already dropped the placeholder, the record is
// prepended unless the refresh brought it in.
func reduceCreateSucceeded(s TaskState, e CreateSucceeded) TaskState {
	s.Loading = false
	s.Error = ""

	created := cloneTask(e.Task)
	if _, i := s.Find(e.TempID); i >= 0 {
		s.Tasks = replaceAt(s.Tasks, i, created)
		return s
	}
	if _, i := s.Find(created.ID); i >= 0 {
		s.Tasks = replaceAt(s.Tasks, i, created)
		return s
	}
	s.Tasks = append([]task.Task{created}, s.Tasks...)
	return s
}

func reduceCreateFailed(s TaskState, e CreateFailed) TaskState {
	s.Tasks = without(s.Tasks, e.TempID)
	return settleWithError(s, e.Message)
}

func reduceUpdateStarted(s TaskState, e UpdateStarted) TaskState {
	current, i := s.Find(e.ID)
	if i < 0 {
		return s
	}
	s.Tasks = replaceAt(s.Tasks, i, cloneTask(current.Apply(e.Patch)))
	if s.Selected != nil && s.Selected.ID == e.ID {
		patched := cloneTask(s.Selected.Apply(e.Patch))
		s.Selected = &patched
	}
	s.Loading = true
	s.Error = ""
	return s
}

// reduceUpdateSucceeded overwrites the task with the full server record. The
// last response to settle wins.
func reduceUpdateSucceeded(s TaskState, e UpdateSucceeded) TaskState {
	s.Loading = false
	s.Error = ""

	updated := cloneTask(e.Task)
	if _, i := s.Find(updated.ID); i >= 0 {
		s.Tasks = replaceAt(s.Tasks, i, updated)
	}
	if s.Selected != nil && s.Selected.ID == updated.ID {
		snapshot := cloneTask(updated)
		s.Selected = &snapshot
	}
	return s
}

func reduceDeleteStarted(s TaskState, e DeleteStarted) TaskState {
	s.Tasks = without(s.Tasks, e.ID)
	if s.Selected != nil && s.Selected.ID == e.ID {
		s.Selected = nil
	}
	s.Loading = true
	s.Error = ""
	return s
}

func reduceTaskSelected(s TaskState, e TaskSelected) TaskState {
	if e.Task == nil {
		s.Selected = nil
		return s
	}
	snapshot := cloneTask(*e.Task)
	s.Selected = &snapshot
	return s
}

// replaceAt returns a copy of tasks with index i set to t.
func replaceAt(tasks []task.Task, i int, t task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	copy(out, tasks)
	out[i] = t
	return out
}

// without returns a copy of tasks minus the entry with id.
func without(tasks []task.Task, id string) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// ReduceAuth returns the session state after event. The token is the only
// source of the authenticated flag.
func ReduceAuth(s AuthState, event Event) AuthState {
	switch e := event.(type) {
	case LoginStarted, RegisterStarted:
		s.Loading = true
		s.Error = ""
		return s
	case LoginSucceeded:
		s.User = cloneProfile(e.User)
		s.Token = e.Token
		s.Loading = false
		s.Error = ""
		return s
	case LoginFailed:
		s.Loading = false
		s.Error = e.Message
		return s
	case RegisterSucceeded:
		s.Loading = false
		s.Error = ""
		return s
	case RegisterFailed:
		s.Loading = false
		s.Error = e.Message
		return s
	case CredentialsSet:
		s.User = cloneProfile(e.User)
		s.Token = e.Token
		return s
	case LoggedOut:
		return AuthState{}
	case AuthErrorCleared:
		s.Error = ""
		return s
	default:
		return s
	}
}
