package audit

import (
	"context"

	"github.com/nerrad567/asset-registry/internal/asset"
)

// Actions recorded for asset changes.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const entityAsset = "asset"

// Recorder turns asset events into audit log entries.
type Recorder struct {
	repo   Repository
	source string
}

// NewRecorder creates a Recorder writing to repo. source names the
// component that made the change, e.g. "api".
func NewRecorder(repo Repository, source string) *Recorder {
	return &Recorder{repo: repo, source: source}
}

// Publish implements asset.EventSink.
func (r *Recorder) Publish(ctx context.Context, e asset.Event) error {
	log := &AuditLog{
		Action:     actionFor(e.Type),
		EntityType: entityAsset,
		EntityID:   e.AssetID,
		Source:     r.source,
		CreatedAt:  e.Timestamp,
	}
	if e.Asset != nil {
		log.Details = map[string]any{
			"serial_number": e.Asset.SerialNumber,
			"status":        string(e.Asset.Status),
			"oee_score":     e.Asset.OEEScore,
		}
	}
	return r.repo.Create(ctx, log)
}

func actionFor(t asset.EventType) string {
	switch t {
	case asset.EventCreated:
		return ActionCreate
	case asset.EventUpdated:
		return ActionUpdate
	case asset.EventDeleted:
		return ActionDelete
	}
	return string(t)
}
