package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/infrastructure/logging"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testWSConfig, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func fakeClient(hub *Hub, buf int, channels ...string) *WSClient {
	c := &WSClient{
		hub:           hub,
		send:          make(chan []byte, buf),
		subscriptions: make(map[string]struct{}),
	}
	for _, ch := range channels {
		c.subscriptions[ch] = struct{}{}
	}
	hub.Register(c)
	return c
}

// ─── Hub ───────────────────────────────────────────────────────────

func TestHub_BroadcastToSubscribed(t *testing.T) {
	hub := newTestHub(t)
	client := fakeClient(hub, wsSendBufferSize, "asset.updated")

	hub.Broadcast("asset.updated", map[string]any{"asset_id": "a-1"})

	select {
	case msg := <-client.send:
		var wsMsg WSMessage
		if err := json.Unmarshal(msg, &wsMsg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if wsMsg.Type != WSTypeEvent || wsMsg.EventType != "asset.updated" {
			t.Errorf("message = %+v", wsMsg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast message")
	}

	if hub.Delivered() != 1 {
		t.Errorf("Delivered() = %d, want 1", hub.Delivered())
	}
}

func TestHub_NoMessageForUnsubscribed(t *testing.T) {
	hub := newTestHub(t)
	client := fakeClient(hub, wsSendBufferSize, "asset.deleted")

	hub.Broadcast("asset.created", map[string]any{"asset_id": "a-1"})

	select {
	case <-client.send:
		t.Error("unsubscribed client should not receive message")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := newTestHub(t)
	fakeClient(hub, 1, "asset.created")

	hub.Broadcast("asset.created", 1)
	hub.Broadcast("asset.created", 2)

	if hub.Delivered() != 1 || hub.Dropped() != 1 {
		t.Errorf("delivered=%d dropped=%d, want 1 and 1", hub.Delivered(), hub.Dropped())
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := newTestHub(t)

	if hub.ClientCount() != 0 {
		t.Errorf("initial client count = %d, want 0", hub.ClientCount())
	}

	client := fakeClient(hub, wsSendBufferSize)
	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	hub.Unregister(client) // second call must not double-close
	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", hub.ClientCount())
	}
}

func TestParseChannels(t *testing.T) {
	known, unknown := parseChannels([]string{" asset.created", "", "asset.deleted ", "device.state"})

	if len(known) != 2 || known[0] != "asset.created" || known[1] != "asset.deleted" {
		t.Errorf("known = %v", known)
	}
	if len(unknown) != 1 || unknown[0] != "device.state" {
		t.Errorf("unknown = %v", unknown)
	}
}

// ─── Full connection ───────────────────────────────────────────────

func dialWS(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws" + query
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp: %v)", err, resp)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readWS(t *testing.T, ws *websocket.Conn) WSMessage {
	t.Helper()
	//nolint:errcheck // test deadline
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_SubscribeAndReceiveAssetEvents(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	ws := dialWS(t, ts, "")
	waitForClients(t, srv.hub, 1)

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{"asset.created", "asset.deleted"}},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}
	if resp := readWS(t, ws); resp.Type != WSTypeResponse || resp.ID != "sub-1" {
		t.Fatalf("subscribe response = %+v", resp)
	}

	created := createAsset(t, ts.Config.Handler, pumpA)

	msg := readWS(t, ws)
	if msg.Type != WSTypeEvent || msg.EventType != string(asset.EventCreated) {
		t.Fatalf("event = %+v", msg)
	}
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var evt asset.Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if evt.AssetID != created.ID || evt.Asset == nil || evt.Asset.SerialNumber != "SN-001" {
		t.Errorf("event payload = %+v", evt)
	}

	// Updates are not subscribed; the next message must be the delete.
	do(t, ts.Config.Handler, http.MethodPut, "/api/assets/"+created.ID,
		assetBody("Pump A", "SN-001", "DOWN", "2024-01-10", 5))
	do(t, ts.Config.Handler, http.MethodDelete, "/api/assets/"+created.ID, "")

	if msg := readWS(t, ws); msg.EventType != string(asset.EventDeleted) {
		t.Errorf("event_type = %q, want asset.deleted", msg.EventType)
	}
}

func TestWebSocket_ChannelsQuery(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	ws := dialWS(t, ts, "?channels=asset.updated")
	waitForClients(t, srv.hub, 1)

	srv.hub.Broadcast("asset.updated", map[string]string{"asset_id": "a-1"})

	if msg := readWS(t, ws); msg.EventType != "asset.updated" {
		t.Errorf("event_type = %q", msg.EventType)
	}
}

func TestWebSocket_UnknownChannelRejected(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?channels=device.state"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown channel")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("resp = %v, want 400", resp)
	}
}

func TestWebSocket_Messages(t *testing.T) {
	tests := []struct {
		name     string
		send     any
		wantType string
	}{
		{"ping", WSMessage{Type: WSTypePing, ID: "p"}, WSTypePong},
		{"unknown type", WSMessage{Type: "shout"}, WSTypeError},
		{"unknown channel", WSMessage{Type: WSTypeSubscribe, Payload: WSSubscribePayload{Channels: []string{"nope"}}}, WSTypeError},
		{"no channels", WSMessage{Type: WSTypeUnsubscribe, Payload: WSSubscribePayload{}}, WSTypeError},
		{"unsubscribe", WSMessage{Type: WSTypeUnsubscribe, Payload: WSSubscribePayload{Channels: []string{"asset.created"}}}, WSTypeResponse},
	}

	srv := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()
	ws := dialWS(t, ts, "")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ws.WriteJSON(tt.send); err != nil {
				t.Fatalf("write: %v", err)
			}
			if msg := readWS(t, ws); msg.Type != tt.wantType {
				t.Errorf("type = %q, want %q (%+v)", msg.Type, tt.wantType, msg)
			}
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		if err := ws.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
			t.Fatalf("write: %v", err)
		}
		if msg := readWS(t, ws); msg.Type != WSTypeError {
			t.Errorf("type = %q, want error", msg.Type)
		}
	})
}

func TestWebSocket_ClosedOnHubShutdown(t *testing.T) {
	hub := NewHub(testWSConfig, logging.Discard())
	srv := testServer(t)
	srv.hub = hub
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ws := dialWS(t, ts, "")
	waitForClients(t, hub, 1)

	cancel()

	//nolint:errcheck // test deadline
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("expected connection to close after hub shutdown")
	}
	waitForClients(t, hub, 0)
}
