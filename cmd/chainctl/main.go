// Command chainctl replays edit scripts against an in-memory chain and
// prints the resulting band layout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	domainconfig "chains/domain/config"
	"chains/infrastructure/config"
)

var (
	configFile string
	logLevel   string
	bandPolicy string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chainctl",
	Short: "Drive a chain of typed atoms from the command line",
	Long: `chainctl builds a chain of atoms grouped into bands of the same type
and applies edit scripts to it (push, delete, move, style, sweep).

Configuration is read from --config (or CHAINS_CONFIG_FILE) and the
environment, then overridden by flags.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("CHAINS_CONFIG_FILE"), "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&bandPolicy, "policy", "", "Band policy override (merge or preserve)")

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers the persistent flags over the file and environment configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigFile(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if bandPolicy != "" {
		cfg.Domain.BandPolicy = domainconfig.BandPolicy(bandPolicy)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
