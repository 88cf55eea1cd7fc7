package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/monitor-switch/internal/config"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/store"
	"github.com/spf13/cobra"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "monitor-switch",
		Short: "Switch monitor inputs over DDC/CI",
		Long: `monitor-switch discovers DDC/CI capable monitors, reads and switches
their active video input, and keeps per-monitor input aliases and
favorites for quick switching.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initSettings,
	}
)

// Execute runs the root command
func Execute() error {
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "settings file (default ~/.config/monitor-switch/settings.toml)")
}

// initSettings loads settings.toml and applies the parts every command shares
func initSettings(cmd *cobra.Command, args []string) error {
	config.SetConfigPath(configFile)
	if err := config.Init(); err != nil {
		return err
	}

	cfg := config.Get()
	if cfg.Logging.LogLevel != "" && !logger.SetLevel(cfg.Logging.LogLevel) {
		logger.Warnf("Unknown log level %q in settings", cfg.Logging.LogLevel)
	}
	store.SetPath(cfg.Store.Path)
	return nil
}

// ExitError prints err and exits with status 1
func ExitError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
