package user

import (
	"time"
)

// User represents a user entity in the system.
type User struct {
	ID           string `gorm:"primaryKey;type:text"`
	Username     string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Identity is the authenticated caller reconstructed from a token on every
// request. It is never stored server-side.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Profile is the public view of a user.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToProfile converts a User to its public view.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
