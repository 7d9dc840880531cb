// Lumen Core - Scheduled Lighting Controller
//
// This is the main entry point for the Lumen Core application.
// Lumen drives a set of GPIO-switched lighting channels from a
// minute-resolution schedule:
//   - Recurring rules from config.yaml (on, off, show, random)
//   - A sunset one-shot re-derived several times a day from a
//     sunrise/sunset lookup service
//   - Manual switching over a small JWT-protected HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lumen-home/lumen-core/migrations"

	"github.com/lumen-home/lumen-core/internal/api"
	"github.com/lumen-home/lumen-core/internal/automation"
	"github.com/lumen-home/lumen-core/internal/infrastructure/config"
	"github.com/lumen-home/lumen-core/internal/infrastructure/database"
	"github.com/lumen-home/lumen-core/internal/infrastructure/influxdb"
	"github.com/lumen-home/lumen-core/internal/infrastructure/logging"
	"github.com/lumen-home/lumen-core/internal/infrastructure/mqtt"
	"github.com/lumen-home/lumen-core/internal/lights"
	"github.com/lumen-home/lumen-core/internal/schedule"
	"github.com/lumen-home/lumen-core/internal/solar"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
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
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Lumen Core",
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
	log.Info("configuration loaded", "path", configPath, "channels", len(cfg.Channels))

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("resolving timezone: %w", err)
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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

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

	// Telemetry fan-out for dispatches and switch commands. State reports
	// reach the fan-out on MQTT handler goroutines, so the WebSocket hub
	// must be wired before the subscription below goes live.
	telemetry := &telemetryFanout{influx: influxClient}

	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(log)
		go hub.Run(ctx)
		telemetry.hub = hub
	}

	// Lights controller: publishes switching commands, tracks reported
	// state, records history.
	history := lights.NewSQLiteHistoryRepository(db.DB)
	controller := lights.NewController(mqttClient, cfg.Channels)
	controller.SetLogger(log)
	controller.SetHistory(history)
	controller.SetMetrics(telemetry)
	controller.SetOnState(func(channel string, state lights.State) {
		telemetry.ChannelReported(channel, state)
	})

	// Relay channel state reports from the bus into the controller
	topics := mqtt.Topics{}
	if err := mqttClient.Subscribe(topics.AllChannelStates(), 1, controller.HandleState); err != nil {
		return fmt.Errorf("subscribing to channel states: %w", err)
	}
	log.Info("subscribed to channel states", "topic", topics.AllChannelStates())

	// Schedule registry seeded from configured rules
	registry := schedule.NewRegistry()
	registry.SetLogger(log)

	window := automation.Window{
		StartHour: cfg.Schedule.RandomWindow.StartHour,
		EndHour:   cfg.Schedule.RandomWindow.EndHour,
	}
	builder := automation.NewBuilder(controller, window, loc)
	builder.SetLogger(log)

	entries, err := builder.Build(cfg.Schedule.Rules)
	if err != nil {
		return fmt.Errorf("building schedule rules: %w", err)
	}
	for _, entry := range entries {
		registry.Append(entry)
	}
	log.Info("schedule rules registered", "rules", len(entries))

	// Solar provider and the recurring sunset refresh
	solarProvider := solar.NewProvider(solar.Config{
		BaseURL:   cfg.Schedule.SolarBaseURL,
		Latitude:  cfg.Site.Location.Latitude,
		Longitude: cfg.Site.Location.Longitude,
		Location:  loc,
	})

	refresh := automation.NewSolarRefresh(solarProvider, registry, controller, cfg.Channels, loc)
	refresh.SetLogger(log)
	refresh.SetRecorder(telemetry)
	registry.Append(refresh.Entry(cfg.Schedule.SolarRefreshHours))

	// Fetch today's sunset immediately so a restart never loses the
	// evening one-shot.
	refresh.Refresh(ctx)

	// Scheduler
	scheduler := schedule.NewScheduler(registry)
	scheduler.SetLogger(log)
	scheduler.SetObserver(telemetry)

	// API server (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			Logger:     log,
			Registry:   registry,
			Controller: controller,
			Solar:      solarProvider,
			History:    history,
			Hub:        hub,
			Version:    version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)
	} else {
		log.Info("API disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// SIGHUP dumps the registry for inspection
	go dumpOnSignal(ctx, registry, log)

	log.Info("initialisation complete, scheduler running")

	// Blocks until the context is cancelled
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")
	log.Info("Lumen Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUMEN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUMEN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
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

// dumpOnSignal logs every registered schedule entry when the process
// receives SIGHUP. Useful for checking what the scheduler will do next
// without restarting.
func dumpOnSignal(ctx context.Context, registry *schedule.Registry, log *logging.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			entries := registry.Dump()
			log.Info("schedule registry dump", "entries", len(entries))
			for _, e := range entries {
				log.Info("registry entry",
					"name", e.Name,
					"pattern", e.Pattern,
					"kind", e.Kind,
					"fired", e.Fired,
				)
			}
		}
	}
}

// telemetryFanout forwards scheduler dispatches and switching telemetry
// to InfluxDB and the WebSocket hub. Either sink may be nil.
//
// It satisfies schedule.Observer, lights.MetricsRecorder and
// automation.SolarRecorder.
type telemetryFanout struct {
	influx *influxdb.Client
	hub    *api.Hub
}

// Dispatched implements schedule.Observer.
func (t *telemetryFanout) Dispatched(entry, pattern string, firedAt time.Time) {
	if t.influx != nil {
		t.influx.WriteDispatch(entry, pattern, firedAt)
	}
	if t.hub != nil {
		t.hub.Broadcast(api.WSEventDispatch, map[string]any{
			"entry":    entry,
			"pattern":  pattern,
			"fired_at": firedAt.Format(time.RFC3339),
		})
	}
}

// ChannelSwitched implements lights.MetricsRecorder.
func (t *telemetryFanout) ChannelSwitched(channel string, on bool, source string) {
	if t.influx != nil {
		t.influx.WriteChannelState(channel, on, source)
	}
}

// SolarTimes implements automation.SolarRecorder.
func (t *telemetryFanout) SolarTimes(date string, sunrise, sunset time.Time) {
	if t.influx != nil {
		t.influx.WriteSolarTimes(date, sunrise, sunset)
	}
}

// ChannelReported pushes confirmed state reports to WebSocket clients.
func (t *telemetryFanout) ChannelReported(channel string, state lights.State) {
	if t.hub != nil {
		t.hub.Broadcast(api.WSEventChannelState, map[string]any{
			"channel": channel,
			"state":   string(state),
		})
	}
}
