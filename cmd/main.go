// Package main is the entry point for omni-transform.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/compresr/omni-transform/internal/adapters"
	"github.com/compresr/omni-transform/internal/config"
	"github.com/compresr/omni-transform/internal/engine"
	"github.com/compresr/omni-transform/internal/gateway"
	"github.com/compresr/omni-transform/internal/monitoring"
)

// Version is set at build time via ldflags.
var Version = "v0.1.0"

// loadEnvFiles loads .env from standard locations
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	configEnv := filepath.Join(homeDir, ".config", "omni-transform", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Also load local .env (can override)
	_ = godotenv.Load()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "transform":
			os.Exit(runTransformCommand(os.Args[2:]))
		case "serve", "start":
			runServeCommand(os.Args[2:])
			return
		case "adapters":
			os.Exit(runAdaptersCommand(os.Args[2:]))
		case "version", "-v", "--version":
			fmt.Printf("omni-transform %s\n", Version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Default: one envelope from stdin to one result on stdout
	os.Exit(runTransformCommand(os.Args[1:]))
}

// =============================================================================
// APP WIRING - shared by every subcommand
// =============================================================================

// app holds the long-lived components built from configuration.
type app struct {
	cfg      *config.Config
	engine   *engine.Engine
	tracker  *monitoring.Tracker
	observer *monitoring.Observer
}

// newApp builds the registry, engine and monitoring stack for cfg.
func newApp(cfg *config.Config) (*app, error) {
	tracker, err := monitoring.NewTracker(monitoring.TelemetryConfig{
		Enabled:     cfg.Monitoring.TelemetryEnabled,
		LogPath:     cfg.Monitoring.TelemetryPath,
		LogToStdout: cfg.Monitoring.LogToStdout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry log: %w", err)
	}

	registry := adapters.RegistryFor(cfg.Engine.EnabledProviders()...)
	eng := engine.New(registry,
		engine.WithAdapterVersion(adapters.Version(cfg.Engine.AdapterVersion)),
		engine.WithLogger(log.Logger),
	)

	return &app{
		cfg:      cfg,
		engine:   eng,
		tracker:  tracker,
		observer: monitoring.NewObserver(tracker, monitoring.NewMetricsCollector()),
	}, nil
}

// Close flushes monitoring state.
func (a *app) Close() error {
	return a.tracker.Close()
}

// loadConfig resolves and parses the configuration, then checks it with
// validate. Commands that never listen skip the server checks.
func loadConfig(userConfig string, validate func(*config.Config) error) (*config.Config, string, error) {
	data, source, err := resolveConfig(userConfig)
	if err != nil {
		return nil, source, err
	}
	cfg, err := config.ParseBytes(data)
	if err != nil {
		return nil, source, err
	}
	if err := validate(cfg); err != nil {
		return nil, source, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, source, nil
}

// setupLogging installs the global logger from the monitoring section.
// With quietStdout set, stdout is reserved for the result document, so logs
// that would go there are sent to stderr instead.
func setupLogging(mcfg config.MonitoringConfig, debug, quietStdout bool) {
	lc := monitoring.LoggerConfig{
		Level:  mcfg.LogLevel,
		Format: mcfg.LogFormat,
		Output: mcfg.LogOutput,
	}
	if debug {
		lc.Level = "debug"
	}
	if quietStdout && (lc.Output == "stdout" || lc.Output == "") {
		lc.Output = "stderr"
	}
	if lc.Output == "stderr" && term.IsTerminal(int(os.Stderr.Fd())) {
		lc.Format = "console"
	}
	monitoring.Global(lc)
}

// =============================================================================
// SERVE
// =============================================================================

// runServeCommand starts the HTTP gateway.
func runServeCommand(args []string) {
	loadEnvFiles()

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	port := fs.Int("port", 0, "override server.port")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg, source, err := loadConfig(*configPath, (*config.Config).Validate)
	if err != nil {
		setupLogging(defaultMonitoring(), *debug, false)
		log.Fatal().Err(err).Str("config", source).Msg("failed to load configuration")
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	setupLogging(cfg.Monitoring, *debug, false)

	a, err := newApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	log.Info().
		Str("version", Version).
		Str("config", source).
		Strs("providers", providerNames(cfg)).
		Str("adapter_version", cfg.Engine.AdapterVersion).
		Msg("omni-transform starting")

	gw := gateway.New(cfg, a.engine, a.observer)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := gw.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("gateway shutdown error")
		}
	}()

	if err := gw.Start(); err != nil {
		log.Error().Err(err).Msg("gateway error")
		return
	}

	log.Info().Msg("omni-transform stopped")
}

func providerNames(cfg *config.Config) []string {
	var names []string
	for _, p := range cfg.Engine.EnabledProviders() {
		names = append(names, p.String())
	}
	return names
}

// printHelp prints usage information
func printHelp() {
	fmt.Println("omni-transform - canonical chat request to provider payload normalizer")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  omni-transform [transform options] < envelope.json")
	fmt.Println("  omni-transform [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  transform    Read one envelope, write one result document (default)")
	fmt.Println("  serve        Start the HTTP transform gateway")
	fmt.Println("  adapters     List registered adapters")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Transform Options:")
	fmt.Println("  --config FILE    Config file (default: embedded)")
	fmt.Println("  --input FILE     Read the envelope from FILE instead of stdin")
	fmt.Println("  --compact        Write single-line JSON")
	fmt.Println("  --debug          Enable debug logging (stderr)")
	fmt.Println()
	fmt.Println("Server Options:")
	fmt.Println("  omni-transform serve [--config FILE] [--port PORT] [--debug]")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  OMNI_LOG_LEVEL       Override monitoring.log_level")
	fmt.Println("  OMNI_TELEMETRY_LOG   Write telemetry JSONL to this path")
}
