package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/asset-registry/internal/infrastructure/config"
	"github.com/nerrad567/asset-registry/internal/infrastructure/influxdb"
)

// fakeInflux answers /ping and records line protocol sent to /api/v2/write.
type fakeInflux struct {
	mu    sync.Mutex
	lines []string
	query []string
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.lines = append(f.lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
		f.query = append(f.query, r.URL.RawQuery)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeInflux) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "plant",
		Bucket:        "assets",
		BatchSize:     100,
		FlushInterval: 60,
	}
}

func connectFake(t *testing.T) (*influxdb.Client, *fakeInflux) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, fake
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := influxdb.Connect(context.Background(), testConfig(url))
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	srv := httptest.NewServer(&fakeInflux{})
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BatchSize = 0
	cfg.FlushInterval = -1

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()
}

func TestWriteAssetOEE(t *testing.T) {
	client, fake := connectFake(t)

	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	client.WriteAssetOEE("a-1", "SN-1", "RUNNING", 87.5, ts)
	client.Flush()

	lines := fake.written()
	if len(lines) != 1 {
		t.Fatalf("written %d lines, want 1: %v", len(lines), lines)
	}
	want := "asset_oee,asset_id=a-1,serial_number=SN-1,status=RUNNING oee_score=87.5"
	if !strings.HasPrefix(lines[0], want) {
		t.Errorf("line = %q, want prefix %q", lines[0], want)
	}
	if !strings.Contains(fake.query[0], "bucket=assets") || !strings.Contains(fake.query[0], "org=plant") {
		t.Errorf("query = %q", fake.query[0])
	}
}

func TestHealthCheck(t *testing.T) {
	client, _ := connectFake(t)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}

	client.Close()
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v, want ErrNotConnected", err)
	}
}

func TestWriteAfterClose(t *testing.T) {
	client, fake := connectFake(t)
	client.Close()

	client.WriteAssetOEE("a-1", "SN-1", "DOWN", 10, time.Now())
	client.Flush()

	if lines := fake.written(); len(lines) != 0 {
		t.Errorf("written after Close: %v", lines)
	}
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}
