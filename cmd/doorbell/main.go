// DoorBell client daemon.
//
// This is the headless core of the DoorBell access-control client. It
// owns the device's authentication session and push subscription state,
// and exposes a loopback HTTP/WebSocket API that the UI layer talks to.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/oPeras1/DoorBell-System-sub001/migrations"

	"github.com/oPeras1/DoorBell-System-sub001/internal/api"
	"github.com/oPeras1/DoorBell-System-sub001/internal/identity"
	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/config"
	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/database"
	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/influxdb"
	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/logging"
	"github.com/oPeras1/DoorBell-System-sub001/internal/infrastructure/mqtt"
	"github.com/oPeras1/DoorBell-System-sub001/internal/push"
	"github.com/oPeras1/DoorBell-System-sub001/internal/session"
	"github.com/oPeras1/DoorBell-System-sub001/internal/store"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting DoorBell daemon",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
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
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Local key-value store and stable install identifier
	st := store.NewSQLiteStore(db.DB)
	installID, err := store.InstallID(ctx, st)
	if err != nil {
		return fmt.Errorf("resolving install identifier: %w", err)
	}
	log.Info("install identifier ready", "install_id", installID)

	// Identity service client
	identityClient := identity.New(cfg.Identity)
	log.Info("identity client configured", "base_url", cfg.Identity.BaseURL)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Push provider over the broker
	provider, err := push.NewMQTTProvider(cfg.Push, mqttClient, installID)
	if err != nil {
		return fmt.Errorf("creating push provider: %w", err)
	}
	log.Info("push provider ready", "platform", cfg.Push.Platform)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	var sink session.Sink
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
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
		sink = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Session core
	manager := session.NewManager(st, identityClient, provider, sink, log, session.Options{
		LoginSyncDelay:    cfg.GetLoginSyncDelay(),
		ReadyPollInterval: cfg.GetReadyPollInterval(),
		ReadyWaitCeiling:  cfg.GetReadyWaitCeiling(),
	})
	defer func() {
		log.Info("closing session manager")
		if closeErr := manager.Close(); closeErr != nil {
			log.Error("error closing session manager", "error", closeErr)
		}
	}()

	// Loopback API for the UI layer. Started before bootstrap so a UI
	// connecting early sees the loading state and the bootstrap event.
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Manager:  manager,
		Database: db,
		MQTT:     mqttClient,
		Influx:   influxHealth(influxClient),
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server listening",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	// Restore any persisted session; the validator and sync coordinator
	// take over from the emitted event.
	manager.Bootstrap(ctx)
	log.Info("session bootstrap complete",
		"authenticated", manager.Snapshot().Authenticated,
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Session manager
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("DoorBell daemon stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DOORBELL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DOORBELL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// influxHealth converts a possibly-nil client into the API's optional
// health check dependency without wrapping nil in a non-nil interface.
func influxHealth(c *influxdb.Client) api.HealthChecker {
	if c == nil {
		return nil
	}
	return c
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
