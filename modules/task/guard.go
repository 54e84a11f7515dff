package task

import (
	"github.com/example/task-tracker/domain/apperror"
	"github.com/example/task-tracker/domain/user"
)

// Action names a single-resource mutation checked by Authorize.
type Action string

const (
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Authorize allows identity to perform action on a resource owned by ownerID.
// A mismatch is an authorization fault, never a not-found one: the caller
// learns the resource exists.
func Authorize(identity user.Identity, ownerID string, action Action) *apperror.Error {
	if identity.UserID != "" && identity.UserID == ownerID {
		return nil
	}
	return apperror.Forbidden("You do not have permission to " + string(action) + " this task")
}
