// Asset Registry server.
//
// assetd serves the industrial asset REST API and live event stream. It
// stores assets in SQLite or PostgreSQL and can mirror every change to
// MQTT, a Redis stream and InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nerrad567/asset-registry/internal/api"
	"github.com/nerrad567/asset-registry/internal/asset"
	"github.com/nerrad567/asset-registry/internal/audit"
	"github.com/nerrad567/asset-registry/internal/eventbus"
	"github.com/nerrad567/asset-registry/internal/infrastructure/config"
	"github.com/nerrad567/asset-registry/internal/infrastructure/database"
	"github.com/nerrad567/asset-registry/internal/infrastructure/influxdb"
	"github.com/nerrad567/asset-registry/internal/infrastructure/logging"
	"github.com/nerrad567/asset-registry/internal/infrastructure/mqtt"
	"github.com/nerrad567/asset-registry/internal/infrastructure/redis"
	_ "github.com/nerrad567/asset-registry/migrations"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configPathEnv     = "ASSETS_CONFIG"

	// auditSource tags audit rows written by this process.
	auditSource = "api"
)

func main() {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts every component, blocks until ctx is cancelled and then shuts
// down in reverse start order. It is separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting asset registry",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"database_driver", cfg.Database.Driver,
		"log_level", cfg.Logging.Level,
	)

	// Database
	db, err := database.Open(ctx, database.Config{
		Driver:          cfg.Database.Driver,
		Path:            cfg.Database.Path,
		WALMode:         cfg.Database.WALMode,
		BusyTimeout:     cfg.Database.BusyTimeout,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "driver", db.Driver())

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	svc := asset.NewService(newAssetRepository(db))
	svc.SetLogger(log)
	history := audit.NewRepository(db)

	// Event sinks. The audit recorder always runs; the rest are optional.
	fanout := eventbus.NewFanout(audit.NewRecorder(history, auditSource))
	integrations := make(map[string]api.HealthChecker)

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		fanout.Add(eventbus.NewMQTTSink(mqttClient, mqttClient.Topics(), mqttClient.QoS()))
		integrations["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		fanout.Add(eventbus.NewInfluxSink(influxClient))
		integrations["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	if cfg.Redis.Enabled {
		redisClient, redisErr := redis.Connect(ctx, cfg.Redis)
		if redisErr != nil {
			return fmt.Errorf("connecting to Redis: %w", redisErr)
		}
		defer func() {
			log.Info("closing Redis connection")
			if closeErr := redisClient.Close(); closeErr != nil {
				log.Error("error closing Redis", "error", closeErr)
			}
		}()

		fanout.Add(eventbus.NewRedisSink(redisClient))
		integrations["redis"] = redisClient
		log.Info("Redis connected", "addr", cfg.Redis.Addr, "stream", redisClient.Stream())
	} else {
		log.Info("Redis disabled")
	}

	// API server
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		WS:           cfg.WebSocket,
		Logger:       log,
		Assets:       svc,
		History:      history,
		DB:           db,
		Integrations: integrations,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	fanout.Add(eventbus.NewHubSink(server.Hub()))

	// Deliver events off the request path. The queue is drained before
	// the sinks above are closed.
	queue := eventbus.NewQueue(fanout, log)
	queueCtx, stopQueue := context.WithCancel(context.Background())
	go queue.Run(queueCtx)
	defer func() {
		stopQueue()
		<-queue.Done()
		log.Info("event queue drained")
	}()
	svc.SetEventSink(queue)
	log.Info("event sinks configured", "sinks", fanout.Len())

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, integrations); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	<-ctx.Done()

	// Deferred calls run in reverse: API server, event queue, Redis,
	// InfluxDB, MQTT, database.
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns ASSETS_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv(configPathEnv); path != "" {
		return path
	}
	return defaultConfigPath
}

// newAssetRepository picks the repository for the open database's driver.
func newAssetRepository(db *database.DB) asset.Repository {
	if db.Driver() == database.DriverPostgres {
		return asset.NewPostgresRepository(db.DB)
	}
	return asset.NewSQLiteRepository(db.DB)
}

// healthCheck verifies the database and every enabled integration answer.
func healthCheck(ctx context.Context, db api.HealthChecker, integrations map[string]api.HealthChecker) error {
	var errs []error
	if err := db.HealthCheck(ctx); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	for name, checker := range integrations {
		if err := checker.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
