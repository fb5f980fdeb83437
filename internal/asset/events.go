package asset

import (
	"context"
	"time"
)

// EventType names a change to the registry.
type EventType string

// Event types published after a successful write.
const (
	EventCreated EventType = "asset.created"
	EventUpdated EventType = "asset.updated"
	EventDeleted EventType = "asset.deleted"
)

// Event describes a committed change. Asset is nil for deletions.
type Event struct {
	Type      EventType `json:"type"`
	AssetID   string    `json:"asset_id"`
	Asset     *Asset    `json:"asset,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives change events. Implementations must not block the
// caller for long; a failed publish never fails the write that caused it.
type EventSink interface {
	Publish(ctx context.Context, e Event) error
}

type noopSink struct{}

func (noopSink) Publish(context.Context, Event) error { return nil }
