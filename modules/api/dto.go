package api

import (
	"encoding/json"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
)

type registerBody struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createTaskBody struct {
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Status      task.Status `json:"status"`
}

func (b createTaskBody) draft() task.Draft {
	return task.Draft{
		Title:       b.Title,
		Description: b.Description,
		Status:      b.Status,
	}
}

// optionalString tells an absent field apart from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

type updateTaskBody struct {
	Title       *string        `json:"title"`
	Description optionalString `json:"description"`
	Status      *task.Status   `json:"status"`
}

// patch converts the body. An explicit null description clears it.
func (b updateTaskBody) patch() task.Patch {
	p := task.Patch{
		Title:  b.Title,
		Status: b.Status,
	}
	if b.Description.Set {
		if b.Description.Value == nil {
			empty := ""
			p.Description = &empty
		} else {
			p.Description = b.Description.Value
		}
	}
	return p
}

type loginData struct {
	Token string        `json:"token"`
	User  *user.Profile `json:"user"`
}

type deleteData struct {
	ID string `json:"id"`
}
