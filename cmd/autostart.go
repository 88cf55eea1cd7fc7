package cmd

import (
	"fmt"

	"github.com/bnema/monitor-switch/internal/autostart"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/ui"
	"github.com/spf13/cobra"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Open the switch menu at login",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Install the login entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := autostart.Enable(); err != nil {
			return err
		}
		path, _ := autostart.Path()
		logger.Infof("Autostart enabled: %s", path)
		return nil
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the login entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := autostart.Disable(); err != nil {
			return err
		}
		logger.Info("Autostart disabled")
		return nil
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the login entry is installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := autostart.Path()
		if err != nil {
			return err
		}
		if autostart.IsEnabled() {
			fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render(ui.IconSuccess+" enabled")+" "+ui.SubtleStyle.Render(path))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), ui.SubtleStyle.Render("disabled"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(autostartCmd)

	autostartCmd.AddCommand(autostartEnableCmd)
	autostartCmd.AddCommand(autostartDisableCmd)
	autostartCmd.AddCommand(autostartStatusCmd)
}
