// Maison Core - Home Module Hub
//
// This is the main entry point for the Maison Core application.
// Maison Core is the family house's central nervous system:
//   - Remote modules (LED strips, shutters, weather stations) connect
//     over persistent WebSocket sessions
//   - The Guirlande ambient light is driven directly from this process
//   - A JWT-protected HTTP API is the single control surface
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/maison-core/migrations"

	"github.com/nerrad567/maison-core/internal/api"
	"github.com/nerrad567/maison-core/internal/auth"
	"github.com/nerrad567/maison-core/internal/guirlande"
	"github.com/nerrad567/maison-core/internal/infrastructure/config"
	"github.com/nerrad567/maison-core/internal/infrastructure/database"
	"github.com/nerrad567/maison-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
	"github.com/nerrad567/maison-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/maison-core/internal/module"
	"github.com/nerrad567/maison-core/internal/scheduler"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear wiring of every subsystem, read top to bottom
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Maison Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
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
	if cfg.DevMode {
		log.Warn("dev mode enabled: test modules can be registered")
	}

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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Start the scheduler: eviction timers, preset rotation
	sched := scheduler.New(log)
	sched.Start()
	defer func() {
		log.Info("stopping scheduler")
		sched.Stop()
	}()

	// Connect to MQTT broker (optional)
	var relay *mqtt.Relay
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
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		relay = mqtt.NewRelay(mqttClient, byte(cfg.MQTT.QoS))
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Load the module registry
	evictionTimeout := time.Duration(cfg.Modules.EvictionTimeout) * time.Second
	registry := module.NewRegistry(module.NewSQLiteRepository(db.DB), sched, evictionTimeout, log)
	if err := registry.Load(ctx); err != nil {
		return fmt.Errorf("loading modules: %w", err)
	}
	defer func() {
		log.Info("unloading modules")
		registry.Unload()
	}()
	logModuleReport(log, registry)

	// User accounts and authentication
	users := auth.NewUserRepository(db.DB)
	tokenTTL := time.Duration(cfg.Security.JWT.AccessTokenTTL) * time.Minute
	authService := auth.NewService(users, cfg.Security.JWT.Secret, tokenTTL, log)
	if _, err := auth.SeedAdmin(ctx, users, log); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	// Guirlande ambient light. The GPIO sink drives the physical strip
	// through the pigpio daemon; when MQTT is up, every colour write is
	// mirrored onto the broker as well.
	var output guirlande.Output = guirlande.NewLogOutput(log)
	if cfg.Guirlande.GPIOEnabled {
		output = guirlande.NewMultiOutput(output, guirlande.NewPigpioOutput(cfg.Guirlande.Pins))
		log.Info("guirlande GPIO output enabled",
			"red_pin", cfg.Guirlande.Pins.Red,
			"green_pin", cfg.Guirlande.Pins.Green,
			"blue_pin", cfg.Guirlande.Pins.Blue,
		)
	}
	if relay != nil {
		output = guirlande.NewMultiOutput(output, relay)
	}
	guirlandeService := guirlande.NewService(
		cfg.Guirlande,
		guirlande.NewSQLiteSettingsRepository(db.DB),
		sched,
		output,
		log,
	)
	if err := guirlandeService.Start(ctx); err != nil {
		return fmt.Errorf("starting guirlande: %w", err)
	}
	defer func() {
		log.Info("stopping guirlande")
		guirlandeService.Close()
	}()
	log.Info("guirlande started", "presets", len(guirlandeService.PresetNames()))

	// HTTP API and module WebSocket endpoint
	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log,
		Registry:  registry,
		Guirlande: guirlandeService,
		Auth:      authService,
		Users:     users,
		Relay:     relay,
		Telemetry: influxClient,
		DevMode:   cfg.DevMode,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, influxClient, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal",
		"api", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, guirlande, registry, InfluxDB, MQTT, scheduler, database.

	log.Info("Maison Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MAISON_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MAISON_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// logModuleReport logs a startup summary of every persisted module, so
// a glance at the boot log shows what the house expects to be there.
func logModuleReport(log *logging.Logger, registry *module.Registry) {
	modules := registry.List()

	validated := 0
	for _, m := range modules {
		if m.Validated() {
			validated++
		}
		log.Info("module loaded",
			"module_id", m.ID(),
			"module_type", m.Type().String(),
			"name", m.Name(),
			"validated", m.Validated(),
		)
	}

	log.Info("module report",
		"total", len(modules),
		"validated", validated,
		"pending", len(modules)-validated,
	)
}

// healthCheck verifies the infrastructure connections are healthy.
// MQTT health is implicit: Connect only returns a client once the
// broker session is up, and the paho client reconnects on its own.
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
