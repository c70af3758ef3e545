// ngsibridge is the NGSI bridge daemon: the north port a context
// broker talks to, backed by a device directory and a command queue.
//
// It serves one NGSI dialect per process (v1 or v2, chosen by config)
// and ships with default handlers that log inbound operations. Real
// deployments replace them through the context server's registry.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/edgehaven/ngsi-bridge/migrations"

	"github.com/edgehaven/ngsi-bridge/internal/api"
	"github.com/edgehaven/ngsi-bridge/internal/contextserver"
	"github.com/edgehaven/ngsi-bridge/internal/device"
	"github.com/edgehaven/ngsi-bridge/internal/expression"
	"github.com/edgehaven/ngsi-bridge/internal/infrastructure/config"
	"github.com/edgehaven/ngsi-bridge/internal/infrastructure/database"
	"github.com/edgehaven/ngsi-bridge/internal/infrastructure/logging"
	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
	"github.com/edgehaven/ngsi-bridge/internal/queue"
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

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting NGSI bridge",
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

	// Device directory: device records merged with their group defaults
	directory := device.NewDirectory(
		device.NewSQLiteRepository(db.DB),
		device.NewSQLiteGroupRepository(db.DB),
	)

	// Command queue for polling devices
	cmdQueue := queue.New(db.DB, cfg.Queue.MaxPerDevice)

	dialect := ngsi.Dialect(cfg.NGSI.Dialect)

	core := contextserver.New(contextserver.Deps{
		Registry:    contextserver.NewRegistry(),
		Directory:   directory,
		Queue:       cmdQueue,
		Engine:      expression.NewEngine(),
		Logger:      log,
		Dialect:     dialect,
		DefaultType: cfg.NGSI.DefaultType,
		ListLimit:   cfg.NGSI.DeviceListLimit,
	})
	registerDefaultHandlers(core, log)

	server, err := api.New(api.Deps{
		Config:  cfg.Server,
		Dialect: dialect,
		Logger:  log,
		Context: core,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing api server", "error", closeErr)
		}
	}()

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal",
		"dialect", cfg.NGSI.Dialect,
		"address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("NGSI bridge stopped")
	return nil
}

// registerDefaultHandlers installs logging placeholders for the
// update, command and notification roles. Queries fall through to the
// built-in handler, which answers from the device declarations.
func registerDefaultHandlers(core *contextserver.Server, log *logging.Logger) {
	registry := core.Registry()

	registry.SetUpdateHandler(func(_ context.Context, target contextserver.Target, _ *device.Device, attrs []ngsi.Attribute) error {
		log.Info("update received",
			"entity_id", target.EntityID,
			"service", target.Service,
			"attributes", len(attrs),
		)
		return nil
	})

	registry.SetCommandHandler(func(_ context.Context, target contextserver.Target, _ *device.Device, commands []ngsi.Attribute) error {
		names := make([]string, len(commands))
		for i, c := range commands {
			names[i] = c.Name
		}
		log.Info("command received",
			"entity_id", target.EntityID,
			"service", target.Service,
			"commands", names,
		)
		return nil
	})

	registry.SetNotificationHandler(func(_ context.Context, dev *device.Device, attrs []ngsi.Attribute) error {
		log.Info("notification received",
			"device_id", dev.ID,
			"attributes", len(attrs),
		)
		return nil
	})
}

// getConfigPath returns the configuration file path.
// Uses NGSIBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("NGSIBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
