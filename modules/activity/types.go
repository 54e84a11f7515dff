package activity

import "github.com/example/task-tracker/domain/user"

// ServiceListActivity is the request-reply service serving a user's feed.
const ServiceListActivity = "list-activity"

type ListActivityRequest struct {
	Identity user.Identity `json:"identity"`
}

type ListActivityResponse struct {
	Entries []Entry `json:"entries"`
}
