package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/infrastructure/mqtt"
)

// Publisher is the MQTT publishing surface used by MQTTSink.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink publishes each event on its event topic and keeps the asset's
// current record as a retained message.
type MQTTSink struct {
	pub    Publisher
	topics mqtt.Topics
	qos    byte
}

// NewMQTTSink creates an MQTT sink.
func NewMQTTSink(pub Publisher, topics mqtt.Topics, qos byte) *MQTTSink {
	return &MQTTSink{pub: pub, topics: topics, qos: qos}
}

// Publish implements asset.EventSink.
func (s *MQTTSink) Publish(_ context.Context, e asset.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	var errs []error
	if err := s.pub.Publish(s.topics.AssetEvent(string(e.Type)), payload, s.qos, false); err != nil {
		errs = append(errs, err)
	}

	// An empty retained payload removes the retained message.
	var state []byte
	if e.Asset != nil {
		if state, err = json.Marshal(e.Asset); err != nil {
			return fmt.Errorf("encoding asset: %w", err)
		}
	}
	if err := s.pub.Publish(s.topics.AssetState(e.AssetID), state, s.qos, true); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// StreamAdder appends entries to a Redis stream.
type StreamAdder interface {
	AddToStream(ctx context.Context, values map[string]any) (string, error)
}

// RedisSink appends each event to a Redis stream.
type RedisSink struct {
	stream StreamAdder
}

// NewRedisSink creates a Redis stream sink.
func NewRedisSink(stream StreamAdder) *RedisSink {
	return &RedisSink{stream: stream}
}

// Publish implements asset.EventSink.
func (s *RedisSink) Publish(ctx context.Context, e asset.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	_, err = s.stream.AddToStream(ctx, map[string]any{
		"type":      string(e.Type),
		"asset_id":  e.AssetID,
		"data":      string(data),
		"timestamp": e.Timestamp.Unix(),
	})
	return err
}

// OEEWriter records OEE scores as time series points.
type OEEWriter interface {
	WriteAssetOEE(assetID, serial, status string, score float64, ts time.Time)
}

// InfluxSink records the OEE score carried by create and update events.
type InfluxSink struct {
	writer OEEWriter
}

// NewInfluxSink creates an InfluxDB sink.
func NewInfluxSink(writer OEEWriter) *InfluxSink {
	return &InfluxSink{writer: writer}
}

// Publish implements asset.EventSink. Deletions carry no score and are skipped.
func (s *InfluxSink) Publish(_ context.Context, e asset.Event) error {
	if e.Asset == nil {
		return nil
	}
	a := e.Asset
	s.writer.WriteAssetOEE(a.ID, a.SerialNumber, string(a.Status), a.OEEScore, e.Timestamp)
	return nil
}

// Broadcaster fans a payload out to websocket subscribers of a channel.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// HubSink broadcasts events to websocket clients subscribed to the event
// type, e.g. "asset.updated".
type HubSink struct {
	hub Broadcaster
}

// NewHubSink creates a websocket sink.
func NewHubSink(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub}
}

// Publish implements asset.EventSink.
func (s *HubSink) Publish(_ context.Context, e asset.Event) error {
	s.hub.Broadcast(string(e.Type), e)
	return nil
}
