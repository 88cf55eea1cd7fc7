package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/monitor-switch/internal/config"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/store"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage monitor-switch settings",
	Long: `Manage the settings file (settings.toml). Aliases and favorites live in
a separate document shared with the menu; see "config path".`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Settings file: %s\n", config.GetConfigPath())
		fmt.Fprintf(out, "Store file: %s\n\n", store.DefaultPath())

		fmt.Fprintln(out, "[ddc]")
		fmt.Fprintf(out, "  Backend: %s\n", cfg.DDC.Backend)
		ddcutil := cfg.DDC.DdcutilPath
		if ddcutil == "" {
			ddcutil = "ddcutil (PATH)"
		}
		fmt.Fprintf(out, "  ddcutil: %s\n", ddcutil)
		if len(cfg.DDC.ExtraArgs) > 0 {
			fmt.Fprintf(out, "  Extra Args: %v\n", cfg.DDC.ExtraArgs)
		}
		fmt.Fprintf(out, "  Settle Delay: %s\n", cfg.SettleDelay())

		fmt.Fprintln(out, "\n[logging]")
		level := cfg.Logging.LogLevel
		if level == "" {
			level = "from LOG_LEVEL"
		}
		fmt.Fprintf(out, "  Log Level: %s\n", level)

		fmt.Fprintln(out, "\n[remote]")
		fmt.Fprintf(out, "  Listen: %s:%d\n", cfg.Remote.BindAddress, cfg.Remote.Port)
		fmt.Fprintf(out, "  Host Key: %s\n", cfg.Remote.HostKeyPath)
		fmt.Fprintf(out, "  Whitelist Only: %v\n", cfg.Remote.WhitelistOnly)
		for _, fp := range cfg.Remote.AuthorizedFingerprints {
			fmt.Fprintf(out, "    - %s\n", fp)
		}

		fmt.Fprintln(out, "\n[menu]")
		fmt.Fprintf(out, "  Watch Config: %v\n", cfg.Menu.WatchConfig)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings and store file locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
		fmt.Fprintln(cmd.OutOrStdout(), store.DefaultPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the settings file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check if config already exists
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				logger.Infof("Settings file already exists at: %s", configPath)
				logger.Info("Use --force to overwrite")
				return nil
			}
		}

		if err := config.Save(); err != nil {
			return err
		}

		logger.Infof("Settings initialized at: %s", configPath)
		return nil
	},
}

var configAuthorizeCmd = &cobra.Command{
	Use:   "authorize <fingerprint>",
	Short: "Allow an SSH key to use the remote switch server",
	Long: `Allow an SSH key to use the remote switch server. The fingerprint is the
SHA256 form printed by "ssh-keygen -l -f key.pub", e.g. SHA256:abc...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.AddAuthorizedFingerprint(args[0]); err != nil {
			return err
		}
		logger.Infof("Authorized SSH key: %s", args[0])
		return nil
	},
}

var configRevokeCmd = &cobra.Command{
	Use:   "revoke <fingerprint>",
	Short: "Remove an SSH key from the remote whitelist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.RemoveAuthorizedFingerprint(args[0]); err != nil {
			return err
		}
		logger.Infof("Revoked SSH key: %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configAuthorizeCmd)
	configCmd.AddCommand(configRevokeCmd)

	configInitCmd.Flags().Bool("force", false, "Force overwrite existing settings")
}
