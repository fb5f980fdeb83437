// Package mqtt provides MQTT client connectivity for the asset registry.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// The registry publishes, it never subscribes. Every committed change is
// sent as an event, and the current record of each asset is kept as a
// retained message so late subscribers (dashboards, historians) see the
// latest state without querying the API.
//
//	assets/event/asset.created   event JSON, not retained
//	assets/asset/{id}            asset JSON, retained; empty payload on delete
//	assets/system/status         online/offline, retained, also the LWT
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	client.Publish(topics.AssetEvent("asset.created"), payload, 1, false)
package mqtt
