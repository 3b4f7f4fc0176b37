package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
)

const envPrefix = "COASTER"

// flagKeys maps command line flags to the config keys they override.
var flagKeys = map[string]string{
	"log-level":  "logLevel",
	"logs-dir":   "logsDir",
	"storage":    "storage.type",
	"speed":      "ride.speedMultiplier",
	"chain-lift": "ride.chainLift",
	"samples":    "geo.samples",
	"lon":        "geo.longitude",
	"lat":        "geo.latitude",
}

func newRootCmd() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:           "coaster",
		Short:         "Roller coaster track builder and ride simulator",
		Version:       fmt.Sprintf("%s (%s)", Version, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			initConfig(configDir)
			return bindFlags(cmd, viper.GetViper())
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".",
		"directory containing "+config.FileName)
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("logs-dir", "./coasterlogs", "directory for log files, empty logs to stdout")
	rootCmd.PersistentFlags().String("storage", "memory",
		"telemetry backend (memory, sqlite, postgres, influx, websocket, none)")

	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newPreviewCmd())
	return rootCmd
}

// initConfig reads the config file and environment. A missing file is not
// an error: every key has a default.
func initConfig(configDir string) {
	if err := config.Load(configDir); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config, using defaults:", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// bindFlags binds each known flag of cmd and its parents to its config key,
// so a flag set on the command line overrides file and environment.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("could not bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}
