package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cjnaz/blinkd/internal/blink"
	"github.com/cjnaz/blinkd/internal/events"
	"github.com/cjnaz/blinkd/internal/gpio"
	"github.com/cjnaz/blinkd/internal/logging"
	"github.com/cjnaz/blinkd/internal/metrics"
)

// CreateDemoCmd creates the demo command: a scripted tour of the player
// semantics on three LEDs. With the noop backend it runs anywhere and the
// pin writes show up in the logs.
func CreateDemoCmd() *cobra.Command {
	var backend string
	var pigpiodAddr string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted blink demo on three LEDs",
		Long: `Drives three LEDs (blue pin 4, red pin 17, yellow pin 20) through a ` +
			`save/restore round trip, concurrent patterns, mid-pattern preemption, ` +
			`and a graceful exit. Use the noop backend to watch it without hardware.`,
		Run: func(_ *cobra.Command, _ []string) {
			level := "info"
			if verbose {
				level = "debug"
			}
			logging.Initialize(logging.Config{Level: level, Format: "text"})
			logger := logging.GetLogger("demo")

			driver, err := gpio.New(gpio.Options{Backend: backend, PigpiodAddr: pigpiodAddr}, logger)
			if err != nil {
				logger.Error("Failed to create GPIO driver", "backend", backend, "error", err)
				os.Exit(1)
			}
			defer driver.Close()

			bus := events.New()
			unbind := metrics.Bind(bus)
			defer unbind()
			supervisor := blink.NewSupervisor(driver, blink.Options{Logger: logger, Bus: bus})

			for _, led := range []blink.LED{
				{Name: "blue", Pin: 4},
				{Name: "red", Pin: 17},
				{Name: "yellow", Pin: 20},
			} {
				if err := supervisor.Add(led); err != nil {
					logger.Error("Failed to add LED", "led", led.Name, "error", err)
					os.Exit(1)
				}
			}

			// Ctrl-C skips ahead to the graceful shutdown
			interrupted := make(chan os.Signal, 1)
			signal.Notify(interrupted, os.Interrupt, syscall.SIGTERM)
			pause := func(d time.Duration) bool {
				select {
				case <-time.After(d):
					return true
				case <-interrupted:
					return false
				}
			}

			push := func(name string, cmd blink.Command) {
				if err := supervisor.Push(name, cmd); err != nil {
					logger.Warn("Push failed", "led", name, "error", err)
				}
			}

			func() {
				logger.Info("Save/restore round trip on blue")
				push("blue", blink.Command{PeriodMs: 200, Pattern: "10", Repeat: 2})
				if !pause(3 * time.Second) {
					return
				}
				// Fast blink that saves the slow one it supersedes
				push("blue", blink.Command{PeriodMs: 50, Pattern: "10000000", Repeat: 8, Modifier: blink.ModifierSave})
				if !pause(3 * time.Second) {
					return
				}
				push("blue", blink.Command{Modifier: blink.ModifierRestore})
				if !pause(3 * time.Second) {
					return
				}
				// The slot is read, not cleared: restore replays again
				push("blue", blink.Command{Modifier: blink.ModifierRestore})
				if !pause(3 * time.Second) {
					return
				}

				logger.Info("Three LEDs blinking concurrently")
				push("blue", blink.Command{PeriodMs: 500, Pattern: "10", Repeat: blink.RepeatForever})
				push("red", blink.Command{PeriodMs: 500, Pattern: "10", Repeat: 3})
				push("yellow", blink.Command{PeriodMs: 500, Pattern: "10", Repeat: blink.RepeatForever})
				if !pause(5 * time.Second) {
					return
				}

				logger.Info("Preempting all three mid-pattern")
				push("blue", blink.Command{PeriodMs: 150, Pattern: "1000", Repeat: blink.RepeatForever})
				push("red", blink.Command{PeriodMs: 50, Pattern: "10", Repeat: 10})
				push("yellow", blink.Command{PeriodMs: 50, Pattern: "1010000000", Repeat: 10})
				if !pause(2 * time.Second) {
					return
				}

				push("blue", blink.Command{PeriodMs: 500, Pattern: "10", Repeat: blink.RepeatForever})
				push("red", blink.Command{PeriodMs: 0, Pattern: "1", Repeat: 1}) // on solid
				push("yellow", blink.Command{PeriodMs: 500, Pattern: "01", Repeat: blink.RepeatForever})
				if !pause(5 * time.Second) {
					return
				}
			}()

			logger.Info("Shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := supervisor.Shutdown(ctx); err != nil {
				logger.Error("Shutdown failed", "error", err)
				os.Exit(1)
			}

			for _, name := range []string{"blue", "red", "yellow"} {
				if m := metrics.Get(name); m != nil {
					logger.Info("Demo totals", "led", name,
						"accepted", m.CommandsAccepted,
						"rejected", m.CommandsRejected,
						"patterns", m.PatternsStarted)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&backend, "backend", "b", "noop", "GPIO backend (sysfs, pigpiod, noop)")
	cmd.Flags().StringVar(&pigpiodAddr, "pigpiod-addr", "localhost:8888", "pigpiod host:port for the pigpiod backend")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}
