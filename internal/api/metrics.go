package api

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"
)

// integrationCheckTimeout bounds each integration health check.
const integrationCheckTimeout = 2 * time.Second

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string              `json:"timestamp"`
	Version       string              `json:"version"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	Runtime       RuntimeMetrics      `json:"runtime"`
	WebSocket     WSMetrics           `json:"websocket"`
	Assets        AssetMetrics        `json:"assets"`
	Database      *DatabaseMetrics    `json:"database,omitempty"`
	Integrations  []IntegrationStatus `json:"integrations"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int    `json:"connected_clients"`
	EventsDelivered  uint64 `json:"events_delivered"`
	EventsDropped    uint64 `json:"events_dropped"`
}

// AssetMetrics contains asset counts. Error is set when counting failed.
type AssetMetrics struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Error    string         `json:"error,omitempty"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	Healthy         bool  `json:"healthy"`
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// IntegrationStatus reports whether an optional event sink is reachable.
type IntegrationStatus struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
			EventsDelivered:  s.hub.Delivered(),
			EventsDropped:    s.hub.Dropped(),
		},
		Assets:       s.assetMetrics(r.Context()),
		Integrations: s.integrationStatus(r.Context()),
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			Healthy:         s.db.HealthCheck(r.Context()) == nil,
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) assetMetrics(ctx context.Context) AssetMetrics {
	m := AssetMetrics{ByStatus: make(map[string]int)}
	counts, err := s.assets.CountByStatus(ctx)
	if err != nil {
		s.logger.Warn("counting assets for metrics failed", "error", err)
		m.Error = "unavailable"
		return m
	}
	for status, n := range counts {
		m.ByStatus[string(status)] = n
		m.Total += n
	}
	return m
}

// integrationStatus checks every configured integration, sorted by name.
func (s *Server) integrationStatus(ctx context.Context) []IntegrationStatus {
	names := make([]string, 0, len(s.integrations))
	for name := range s.integrations {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]IntegrationStatus, 0, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, integrationCheckTimeout)
		err := s.integrations[name].HealthCheck(checkCtx)
		cancel()

		st := IntegrationStatus{Name: name, Connected: err == nil}
		if err != nil {
			st.Error = err.Error()
		}
		out = append(out, st)
	}
	return out
}
