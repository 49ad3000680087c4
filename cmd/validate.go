// Package cmd holds the cobra subcommands added to the humacli root.
package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	ledstore "github.com/cjnaz/blinkd/internal/leds/store"
)

// CreateValidateCmd creates the validate command, which checks a leds.toml
// file without starting the daemon.
func CreateValidateCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an LED definitions file",
		Long: `Parses the LED definitions file and checks every spec: names must be ` +
			`non-empty, pins non-negative, and no two enabled LEDs may share a pin.`,
		Run: func(_ *cobra.Command, _ []string) {
			specs, err := ledstore.LoadFile(configFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", configFile, err)
				os.Exit(1)
			}

			names := make([]string, 0, len(specs))
			for name := range specs {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				spec := specs[name]
				state := "enabled"
				if !spec.Enabled {
					state = "disabled"
				}
				fmt.Printf("  %-16s pin %-3d active_low=%-5v %s\n", name, spec.Pin, spec.ActiveLow, state)
			}
			fmt.Printf("%s: %d LED(s), OK\n", configFile, len(specs))
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "leds.toml", "LED definitions file to validate")
	return cmd
}
