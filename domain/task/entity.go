package task

import "time"

// Status represents the state of a task.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is the core domain entity representing a todo item.
type Task struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description *string   `gorm:"size:1000" json:"description"`
	Status      Status    `gorm:"size:16;not null;default:PENDING" json:"status"`
	UserID      string    `gorm:"index;not null;type:text" json:"userId"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Draft holds the fields submitted when creating a task.
type Draft struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      Status  `json:"status,omitempty"`
}

// Patch holds the fields submitted when updating a task. Nil fields are left
// unchanged; an empty Description clears it.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// Apply returns a copy of t with the patch fields written over it.
func (t Task) Apply(p Patch) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		if *p.Description == "" {
			t.Description = nil
		} else {
			d := *p.Description
			t.Description = &d
		}
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}
