package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/audit"
	"github.com/nerrad567/asset-registry/internal/infrastructure/config"
	"github.com/nerrad567/asset-registry/internal/infrastructure/logging"
	"github.com/nerrad567/asset-registry/internal/panel"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// AssetService is the asset workflow the handlers drive.
type AssetService interface {
	List(ctx context.Context) ([]asset.Asset, error)
	Get(ctx context.Context, id string) (*asset.Asset, error)
	Create(ctx context.Context, p asset.Payload) (*asset.Asset, error)
	Update(ctx context.Context, id string, p asset.Payload) (*asset.Asset, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[asset.Status]int, error)
}

// DatabaseInfo is the slice of the database wrapper reported by /api/metrics.
type DatabaseInfo interface {
	Stats() sql.DBStats
	HealthCheck(ctx context.Context) error
}

// HealthChecker is implemented by optional integrations (MQTT, Redis,
// InfluxDB) whose reachability is reported by /api/metrics.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	WS           config.WebSocketConfig
	Logger       *logging.Logger
	Assets       AssetService
	History      audit.Repository         // optional: /api/assets/history answers 503 without it
	DB           DatabaseInfo             // optional: omitted from metrics when nil
	Integrations map[string]HealthChecker // optional: keyed by display name
	Version      string
}

// Server is the HTTP API server for the asset registry.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	wsCfg        config.WebSocketConfig
	logger       *logging.Logger
	assets       AssetService
	history      audit.Repository
	db           DatabaseInfo
	integrations map[string]HealthChecker
	version      string
	startTime    time.Time
	server       *http.Server
	hub          *Hub
	panel        http.Handler
	cancel       context.CancelFunc // cancels the hub on Close()
}

// New creates a new API server with the given dependencies.
//
// The WebSocket hub is created here so event sinks can be wired to it
// before Start; it begins running when Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Assets == nil {
		return nil, fmt.Errorf("asset service is required")
	}

	dashboard, err := panel.Handler(deps.Assets, "", deps.Logger)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:          deps.Config,
		wsCfg:        deps.WS,
		logger:       deps.Logger,
		assets:       deps.Assets,
		history:      deps.History,
		db:           deps.DB,
		integrations: deps.Integrations,
		version:      deps.Version,
		startTime:    time.Now(),
		hub:          NewHub(deps.WS, deps.Logger),
		panel:        dashboard,
	}, nil
}

// Hub returns the WebSocket hub that broadcasts asset events.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routed HTTP handler, for embedding the API in
// another server or an httptest.Server.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start runs the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Handler(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
