package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cjnaz/blinkd/cmd"
	"github.com/cjnaz/blinkd/internal/api"
	"github.com/cjnaz/blinkd/internal/blink"
	"github.com/cjnaz/blinkd/internal/config"
	"github.com/cjnaz/blinkd/internal/events"
	"github.com/cjnaz/blinkd/internal/gpio"
	"github.com/cjnaz/blinkd/internal/leds"
	ledstore "github.com/cjnaz/blinkd/internal/leds/store"
	"github.com/cjnaz/blinkd/internal/logging"
	"github.com/cjnaz/blinkd/internal/metrics"
	"github.com/cjnaz/blinkd/internal/updater"
	"github.com/cjnaz/blinkd/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8093" toml:"server.port" env:"SERVER_PORT"`

	// LED settings
	LedsConfigFile string `help:"LED definitions file" default:"leds.toml" toml:"leds.config_file" env:"LEDS_CONFIG_FILE"`

	// GPIO settings
	GpioBackend string `help:"GPIO backend (sysfs, pigpiod, noop)" default:"sysfs" toml:"gpio.backend" env:"GPIO_BACKEND"`
	PigpiodAddr string `help:"pigpiod host:port for the pigpiod backend" default:"localhost:8888" toml:"gpio.pigpiod_addr" env:"GPIO_PIGPIOD_ADDR"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Update settings
	UpdateRepository string `help:"GitHub repository for self-updates" default:"cjnaz/blinkd" toml:"update.repository" env:"UPDATE_REPOSITORY"`
	UpdatePrerelease bool   `help:"Allow prerelease updates" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingBlink   string `help:"Player logging level" default:"info" toml:"logging.blink" env:"LOGGING_BLINK"`
	LoggingGpio    string `help:"GPIO driver logging level" default:"info" toml:"logging.gpio" env:"LOGGING_GPIO"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingConfig  string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingUpdater string `help:"Updater logging level" default:"info" toml:"logging.updater" env:"LOGGING_UPDATER"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.Load(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// The [logging] table may carry per-module levels beyond the ones
		// flags cover (demo, main, ...); flag and env values win for the
		// rest.
		logCfg := config.LoadLoggingConfig(opts.Config)
		logCfg.Level = opts.LoggingLevel
		logCfg.Format = opts.LoggingFormat
		logCfg.Modules["blink"] = opts.LoggingBlink
		logCfg.Modules["gpio"] = opts.LoggingGpio
		logCfg.Modules["api"] = opts.LoggingAPI
		logCfg.Modules["config"] = opts.LoggingConfig
		logCfg.Modules["updater"] = opts.LoggingUpdater
		logging.Initialize(logCfg)

		logger := logging.GetLogger("main")

		// Event bus carries player events to metrics, SSE, and logs
		eventBus := events.New()
		unbindMetrics := metrics.Bind(eventBus)

		// New log entries feed the SSE log stream
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		driver, err := gpio.New(gpio.Options{
			Backend:     opts.GpioBackend,
			PigpiodAddr: opts.PigpiodAddr,
		}, logging.GetLogger("gpio"))
		if err != nil {
			logger.Error("Failed to create GPIO driver", "backend", opts.GpioBackend, "error", err)
			os.Exit(1)
		}

		supervisor := blink.NewSupervisor(driver, blink.Options{
			Logger: logging.GetLogger("blink"),
			Bus:    eventBus,
		})

		// LED definitions from leds.toml
		ledStore := ledstore.NewTOML(opts.LedsConfigFile)
		if err := ledStore.Load(); err != nil {
			logger.Error("Failed to load LED definitions", "file", opts.LedsConfigFile, "error", err)
			os.Exit(1)
		}

		// Watch leds.toml and reconcile the running players on change
		watcher := config.NewWatcher(opts.LedsConfigFile, ledstore.LoadFile, logging.GetLogger("config"))
		watcher.OnReload(func(specs map[string]leds.Spec) {
			if err := ledStore.Load(); err != nil {
				logger.Warn("Failed to reload LED store", "error", err)
			}
			desired := make(map[string]blink.LED)
			for name, spec := range specs {
				if spec.Enabled {
					desired[name] = blink.LED{Name: name, Pin: spec.Pin, ActiveLow: spec.ActiveLow}
				}
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			supervisor.Reconcile(ctx, desired)
		})

		updateService, err := updater.NewService(&updater.Options{
			Repository: opts.UpdateRepository,
			Prerelease: opts.UpdatePrerelease,
		})
		if err != nil {
			logger.Warn("Failed to create update service", "error", err)
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Supervisor:        supervisor,
			Store:             ledStore,
			Bus:               eventBus,
			UpdateService:     updateService,
			PrometheusHandler: promhttp.Handler(),
		})

		hooks.OnStart(func() {
			// Start a player for every enabled LED
			for name, spec := range ledStore.Enabled() {
				if addErr := supervisor.Add(blink.LED{Name: name, Pin: spec.Pin, ActiveLow: spec.ActiveLow}); addErr != nil {
					logger.Error("Failed to start LED player", "led", name, "error", addErr)
				}
			}

			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Failed to watch LED definitions", "file", opts.LedsConfigFile, "error", watchErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port, "version", version.String())
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			// Cooperative: each player finishes its current bit holds,
			// plays the exit pattern once, and settles its pin low.
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if shutErr := supervisor.Shutdown(ctx); shutErr != nil {
				logger.Error("Player shutdown incomplete", "error", shutErr)
			}

			if closeErr := driver.Close(); closeErr != nil {
				logger.Warn("Error closing GPIO driver", "error", closeErr)
			}
			unbindMetrics()
		})
	})

	cli.Root().AddCommand(cmd.CreateDemoCmd())
	cli.Root().AddCommand(cmd.CreateValidateCmd())
	cli.Root().AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.Get().String())
		},
	})

	cli.Run()
}
