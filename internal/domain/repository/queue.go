package repository

import "context"

// Event names the trigger kinds a notification can carry.
type Event string

const (
	EventUpdate    Event = "update"
	EventUnpublish Event = "unpublish"
	EventDelete    Event = "delete"
)

func (e Event) String() string {
	return string(e)
}

// Notification is one publishing trigger for a registry entry.
type Notification struct {
	RegistryID string `json:"registryId"`
	Event      Event  `json:"event"`
}

// NotificationQueue defines the interface for the trigger queue.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type NotificationQueue interface {
	// PublishNotification sends a trigger to the queue.
	PublishNotification(ctx context.Context, notification Notification) error

	// ConsumeNotifications starts consuming triggers from the queue.
	// The handler is called for each received notification; handler errors
	// are recorded by the workflow itself, so messages are acknowledged
	// either way and only undecodable payloads are rejected.
	// Used by the worker service.
	ConsumeNotifications(ctx context.Context, handler func(notification Notification) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
