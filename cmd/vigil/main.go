// Vigil - Screen Automation Core
//
// This is the main entry point for the Vigil service. Vigil watches a
// frame source through a fixed-rate capture stream and runs workflows
// over the modules that interpret those frames. The service is built
// around:
//   - A single capture loop with snapshot-per-frame delivery
//   - All-or-nothing module activation around every workflow run
//   - Replayable frame sources for deterministic offline runs
//   - MQTT events and InfluxDB metrics for observability
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/vigil-core/migrations"

	"github.com/nerrad567/vigil-core/internal/engine"
	"github.com/nerrad567/vigil-core/internal/history"
	"github.com/nerrad567/vigil-core/internal/infrastructure/config"
	"github.com/nerrad567/vigil-core/internal/infrastructure/database"
	"github.com/nerrad567/vigil-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/vigil-core/internal/infrastructure/logging"
	"github.com/nerrad567/vigil-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/vigil-core/internal/input"
	"github.com/nerrad567/vigil-core/internal/modules/tracker"
	"github.com/nerrad567/vigil-core/internal/source"
	"github.com/nerrad567/vigil-core/internal/telemetry"
	"github.com/nerrad567/vigil-core/internal/template"
	"github.com/nerrad567/vigil-core/internal/vision"
	"github.com/nerrad567/vigil-core/internal/workflows/sweep"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/vigil.yaml"

// Command-line flags. An empty workflow flag starts service mode, where
// runs are triggered over the MQTT command topic instead.
var (
	configFlag   = flag.String("config", "", "path to the configuration file")
	workflowFlag = flag.String("workflow", "", "run the named workflow once and exit")
)

func main() {
	flag.Parse()

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
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
	log.Info("starting Vigil",
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

	// Open database and prepare run history (optional)
	var (
		db           *database.DB
		historyStore engine.HistoryStore
	)
	if cfg.Database.Enabled {
		db, err = database.Open(ctx, cfg.Database)
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

		historyStore = history.NewSQLiteStore(db.DB)
	} else {
		log.Info("database disabled, run history will not be recorded")
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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

		// Set up MQTT logging callbacks
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
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

		// Set up InfluxDB error callback
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Create the frame source
	src, err := source.New(cfg.Source)
	if err != nil {
		return fmt.Errorf("creating frame source: %w", err)
	}
	log.Info("frame source ready", "type", cfg.Source.Type)

	// Engine events fan out to MQTT and InfluxDB. Assigning through the
	// interfaces keeps the sinks' nil checks working when a backend is
	// disabled.
	var eventClient telemetry.EventClient
	if mqttClient != nil {
		eventClient = mqttClient
	}
	publisher := telemetry.NewPublisher(eventClient, cfg.Service.ID)
	publisher.SetLogger(log)

	var runWriter telemetry.RunWriter
	if influxClient != nil {
		runWriter = influxClient
	}
	events := telemetry.MultiSink{
		publisher,
		telemetry.NewRunMetrics(runWriter, cfg.Service.ID),
	}

	// Assemble the engine around the source
	eng := engine.New(engine.Options{
		Config:  cfg,
		Logger:  log,
		Source:  src,
		History: historyStore,
		Events:  events,
	})

	// Vision caches the latest frame off the engine's stream
	visionSvc := vision.New(cfg.Vision)
	visionSvc.Attach(eng.Stream())

	// The noop driver stands in until a platform input backend ships;
	// pacing and bounds checks still apply.
	ctl := input.New(input.NoopDriver{}, cfg.Input)

	// Load template metadata
	templates, err := template.Load(cfg.Templates.Dir)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	log.Info("templates loaded", "dir", cfg.Templates.Dir, "version", templates.Version())

	// Register modules and workflows
	trk := tracker.New(eng.Stream(), visionSvc, templates, cfg.Modules.Tracker)
	trk.SetLogger(log)
	if err := eng.RegisterModule(trk); err != nil {
		return fmt.Errorf("registering tracker module: %w", err)
	}
	if err := eng.RegisterWorkflow("sweep", sweep.Definition(trk, ctl, cfg, log)); err != nil {
		return fmt.Errorf("registering sweep workflow: %w", err)
	}

	// Start the stream metrics recorder (requires InfluxDB)
	if influxClient != nil {
		recorder := telemetry.NewRecorder(cfg.Service.ID, cfg.GetSampleInterval(), eng.Stream().Metrics, influxClient)
		if err := recorder.Start(); err != nil {
			return fmt.Errorf("starting metrics recorder: %w", err)
		}
		defer func() {
			log.Info("stopping metrics recorder")
			recorder.Stop()
		}()
		log.Info("metrics recorder started", "interval", cfg.GetSampleInterval())
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Probe the source and start the capture stream
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer func() {
		// The signal context is already cancelled by the time the defers
		// run; Shutdown applies its own timeout.
		if shutdownErr := eng.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			log.Error("engine shutdown reported failures", "error", shutdownErr)
		}
	}()

	// Accept workflow run commands over MQTT
	if mqttClient != nil {
		if err := subscribeWorkflowCommands(ctx, mqttClient, cfg, eng, log); err != nil {
			return fmt.Errorf("subscribing to workflow commands: %w", err)
		}
		log.Info("workflow command topic ready", "topic", mqtt.Topics{}.WorkflowCommand())
	}

	// One-shot mode: run the named workflow, then let the defers unwind
	if *workflowFlag != "" {
		log.Info("running workflow", "workflow", *workflowFlag)
		if err := eng.Run(ctx, *workflowFlag); err != nil {
			// Timeboxed workflows end with a context error when the
			// window closes; in one-shot mode that is a clean exit.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info("workflow run ended", "workflow", *workflowFlag, "reason", err)
				return nil
			}
			return fmt.Errorf("running workflow %s: %w", *workflowFlag, err)
		}
		return nil
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal or a fatal stream halt
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case <-eng.Done():
		return fmt.Errorf("frame stream halted: %w", eng.Stream().Err())
	}

	// Deferred calls will run in reverse order:
	// 1. Engine shutdown (deactivates modules, stops the stream)
	// 2. Metrics recorder (final sample)
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("Vigil stopped")
	return nil
}

// getConfigPath returns the configuration file path. The -config flag
// takes priority, then the VIGIL_CONFIG environment variable, then the
// default path.
func getConfigPath() string {
	if *configFlag != "" {
		return *configFlag
	}
	if path := os.Getenv("VIGIL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the enabled infrastructure connections are healthy.
// Disabled subsystems arrive as nil and are skipped.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check (may be nil)
//   - mqttClient: MQTT client to check (may be nil)
//   - influxClient: InfluxDB client to check (may be nil)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	// Check MQTT
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	// Check InfluxDB
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// workflowCommand is the JSON payload accepted on the workflow command topic.
type workflowCommand struct {
	Workflow string `json:"workflow"`
}

// subscribeWorkflowCommands wires the MQTT command topic to engine runs.
// Each command triggers at most one run; commands arriving while a run
// is in flight are rejected by the engine's exclusivity check and logged.
func subscribeWorkflowCommands(ctx context.Context, client *mqtt.Client, cfg *config.Config, eng *engine.Engine, log *logging.Logger) error {
	topics := mqtt.Topics{}

	return client.Subscribe(topics.WorkflowCommand(), byte(cfg.MQTT.QoS), func(_ string, payload []byte) error {
		var cmd workflowCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("parsing workflow command: %w", err)
		}
		if cmd.Workflow == "" {
			return errors.New("workflow command missing workflow name")
		}

		log.Info("workflow command received", "workflow", cmd.Workflow)

		// Runs block until the workflow finishes, so they cannot hold up
		// the MQTT receive path.
		go func() {
			if runErr := eng.Run(ctx, cmd.Workflow); runErr != nil {
				log.Error("workflow run failed", "workflow", cmd.Workflow, "error", runErr)
			}
		}()
		return nil
	})
}
