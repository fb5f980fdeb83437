package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/infrastructure/config"
	"github.com/nerrad567/asset-registry/internal/infrastructure/mqtt"
	"github.com/nerrad567/asset-registry/internal/infrastructure/redis"
)

var testTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func testAsset() *asset.Asset {
	return &asset.Asset{
		ID:                  "a-1",
		AssetName:           "Press",
		SerialNumber:        "SN-1",
		Status:              asset.StatusRunning,
		LastMaintenanceDate: "2024-01-10",
		OEEScore:            87.5,
		CreatedAt:           testTime,
		UpdatedAt:           testTime,
	}
}

type testLogger struct{}

func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic, payload, qos, retained})
	return p.err
}

type recordingSink struct {
	mu     sync.Mutex
	events []asset.Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, e asset.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestMQTTSink_Created(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTTSink(pub, mqtt.Topics{}, 1)

	err := sink.Publish(context.Background(), asset.Event{
		Type: asset.EventCreated, AssetID: "a-1", Asset: testAsset(), Timestamp: testTime,
	})
	require.NoError(t, err)
	require.Len(t, pub.msgs, 2)

	assert.Equal(t, "assets/event/asset.created", pub.msgs[0].topic)
	assert.False(t, pub.msgs[0].retained)
	var e asset.Event
	require.NoError(t, json.Unmarshal(pub.msgs[0].payload, &e))
	assert.Equal(t, asset.EventCreated, e.Type)

	assert.Equal(t, "assets/asset/a-1", pub.msgs[1].topic)
	assert.True(t, pub.msgs[1].retained)
	var a asset.Asset
	require.NoError(t, json.Unmarshal(pub.msgs[1].payload, &a))
	assert.Equal(t, "SN-1", a.SerialNumber)
}

func TestMQTTSink_DeletedClearsRetained(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTTSink(pub, mqtt.Topics{Prefix: "plant"}, 0)

	err := sink.Publish(context.Background(), asset.Event{
		Type: asset.EventDeleted, AssetID: "a-1", Timestamp: testTime,
	})
	require.NoError(t, err)
	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "plant/asset/a-1", pub.msgs[1].topic)
	assert.True(t, pub.msgs[1].retained)
	assert.Empty(t, pub.msgs[1].payload)
}

func TestMQTTSink_Error(t *testing.T) {
	pub := &fakePublisher{err: mqtt.ErrNotConnected}
	sink := NewMQTTSink(pub, mqtt.Topics{}, 1)

	err := sink.Publish(context.Background(), asset.Event{Type: asset.EventUpdated, AssetID: "a-1", Asset: testAsset()})
	assert.ErrorIs(t, err, mqtt.ErrNotConnected)
}

func TestRedisSink(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := redis.Connect(ctx, config.RedisConfig{
		Enabled: true,
		Addr:    mr.Addr(),
		Stream:  "assets:events",
		MaxLen:  1000,
	})
	require.NoError(t, err)
	defer client.Close()

	sink := NewRedisSink(client)
	require.NoError(t, sink.Publish(ctx, asset.Event{
		Type: asset.EventUpdated, AssetID: "a-1", Asset: testAsset(), Timestamp: testTime,
	}))

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	msgs, err := rdb.XRange(ctx, "assets:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "asset.updated", values["type"])
	assert.Equal(t, "a-1", values["asset_id"])
	assert.Equal(t, "1709280000", values["timestamp"])

	var e asset.Event
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &e))
	assert.Equal(t, "SN-1", e.Asset.SerialNumber)
}

type oeePoint struct {
	id, serial, status string
	score              float64
	ts                 time.Time
}

type fakeOEEWriter struct {
	points []oeePoint
}

func (w *fakeOEEWriter) WriteAssetOEE(id, serial, status string, score float64, ts time.Time) {
	w.points = append(w.points, oeePoint{id, serial, status, score, ts})
}

func TestInfluxSink(t *testing.T) {
	w := &fakeOEEWriter{}
	sink := NewInfluxSink(w)
	ctx := context.Background()

	require.NoError(t, sink.Publish(ctx, asset.Event{Type: asset.EventCreated, AssetID: "a-1", Asset: testAsset(), Timestamp: testTime}))
	require.NoError(t, sink.Publish(ctx, asset.Event{Type: asset.EventDeleted, AssetID: "a-1", Timestamp: testTime}))

	require.Len(t, w.points, 1)
	assert.Equal(t, oeePoint{"a-1", "SN-1", "RUNNING", 87.5, testTime}, w.points[0])
}

type fakeHub struct {
	channels []string
}

func (h *fakeHub) Broadcast(channel string, _ any) {
	h.channels = append(h.channels, channel)
}

func TestHubSink(t *testing.T) {
	hub := &fakeHub{}
	sink := NewHubSink(hub)

	require.NoError(t, sink.Publish(context.Background(), asset.Event{Type: asset.EventDeleted, AssetID: "a-1"}))
	assert.Equal(t, []string{"asset.deleted"}, hub.channels)
}

func TestFanout(t *testing.T) {
	failing := &recordingSink{err: errors.New("down")}
	ok := &recordingSink{}
	fan := NewFanout(failing, nil, ok)

	assert.Equal(t, 2, fan.Len())

	err := fan.Publish(context.Background(), asset.Event{Type: asset.EventCreated, AssetID: "a-1"})
	assert.EqualError(t, err, "down")
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, ok.count(), "later sinks still receive the event")
}

func TestQueue_DeliversAndDrains(t *testing.T) {
	sink := &recordingSink{}
	q := NewQueue(sink, testLogger{})

	reqCtx, cancelReq := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Publish(reqCtx, asset.Event{Type: asset.EventUpdated, AssetID: "a-1"}))
	}
	cancelReq()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx)

	select {
	case <-q.Done():
	default:
		t.Fatal("Done not closed after Run returned")
	}
	assert.Equal(t, 5, sink.count())
	for _, e := range sink.events {
		assert.Equal(t, asset.EventUpdated, e.Type)
	}
}

func TestQueue_Full(t *testing.T) {
	q := NewQueue(&recordingSink{}, testLogger{})

	for i := 0; i < queueSize; i++ {
		require.NoError(t, q.Publish(context.Background(), asset.Event{}))
	}
	assert.ErrorIs(t, q.Publish(context.Background(), asset.Event{}), ErrQueueFull)
}

func TestQueue_SinkContextNotCancelled(t *testing.T) {
	var gotErr error
	sink := sinkFunc(func(ctx context.Context, _ asset.Event) error {
		gotErr = ctx.Err()
		return nil
	})
	q := NewQueue(sink, testLogger{})

	reqCtx, cancelReq := context.WithCancel(context.Background())
	require.NoError(t, q.Publish(reqCtx, asset.Event{}))
	cancelReq()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx)

	assert.NoError(t, gotErr)
}

type sinkFunc func(context.Context, asset.Event) error

func (f sinkFunc) Publish(ctx context.Context, e asset.Event) error { return f(ctx, e) }
