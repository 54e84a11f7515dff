package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityModule records task events into per-user feeds.
type ActivityModule struct {
	feed *Feed
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)

func NewModule() *ActivityModule {
	return &ActivityModule{
		feed: NewFeed(DefaultFeedSize),
	}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Printf("[activity] Registered event consumers: TaskCreated, TaskUpdated, TaskDeleted")
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListActivity, json.Unmarshal, json.Marshal, m.listActivity,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListActivity, err)
	}

	log.Printf("[activity] Registered services: list-activity")
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.feed.Record(event.UserID, Entry{
		Kind:       KindCreated,
		TaskID:     event.TaskID,
		Title:      event.Title,
		Status:     event.Status,
		OccurredAt: event.CreatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.feed.Record(event.UserID, Entry{
		Kind:       KindUpdated,
		TaskID:     event.TaskID,
		Title:      event.Title,
		Status:     event.Status,
		OccurredAt: event.UpdatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.feed.Record(event.UserID, Entry{
		Kind:       KindDeleted,
		TaskID:     event.TaskID,
		Title:      event.Title,
		OccurredAt: event.DeletedAt,
	})
	return nil
}

func (m *ActivityModule) listActivity(_ context.Context, req ListActivityRequest, _ *mono.Msg) (ListActivityResponse, error) {
	return ListActivityResponse{Entries: m.feed.Recent(req.Identity.UserID)}, nil
}

func (m *ActivityModule) Start(_ context.Context) error {
	log.Println("[activity] Module started - listening for task events")
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	log.Println("[activity] Module stopped")
	return nil
}
