package mqtt

import "strings"

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "assets"

// Topics builds the registry's MQTT topic names under a common prefix.
//
//	topics := mqtt.Topics{Prefix: "plant1/assets"}
//	topics.AssetState("4f1c...")
//	// Returns: "plant1/assets/asset/4f1c..."
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.TrimSuffix(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// AssetEvent returns the topic for change events of the given type.
//
// Example: assets/event/asset.updated
func (t Topics) AssetEvent(eventType string) string {
	return t.prefix() + "/event/" + eventType
}

// AllAssetEvents returns a wildcard matching every event topic.
func (t Topics) AllAssetEvents() string {
	return t.prefix() + "/event/#"
}

// AssetState returns the retained topic holding an asset's current record.
//
// Example: assets/asset/4f1c...
func (t Topics) AssetState(id string) string {
	return t.prefix() + "/asset/" + id
}

// SystemStatus returns the retained online/offline topic.
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}
