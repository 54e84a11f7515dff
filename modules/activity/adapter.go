package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/task-tracker/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityPort reads a user's activity feed.
type ActivityPort interface {
	Recent(ctx context.Context, identity user.Identity) ([]Entry, error)
}

// ActivityAdapter implements ActivityPort over the activity module's service.
type ActivityAdapter struct {
	container mono.ServiceContainer
}

var _ ActivityPort = (*ActivityAdapter)(nil)

func NewActivityAdapter(container mono.ServiceContainer) *ActivityAdapter {
	return &ActivityAdapter{container: container}
}

func (a *ActivityAdapter) Recent(ctx context.Context, identity user.Identity) ([]Entry, error) {
	req := ListActivityRequest{Identity: identity}
	var resp ListActivityResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceListActivity, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-activity request failed: %w", err)
	}
	if resp.Entries == nil {
		resp.Entries = []Entry{}
	}
	return resp.Entries, nil
}
