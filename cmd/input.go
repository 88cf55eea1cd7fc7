package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/bnema/monitor-switch/internal/config"
	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/session"
	"github.com/bnema/monitor-switch/internal/ui"
	"github.com/spf13/cobra"
)

// ErrNotSwitched is returned by set --verify when the monitor still reports
// another input after the settle delay
var ErrNotSwitched = errors.New("monitor did not switch")

var setVerify bool

// sleep waits out the settle delay. Tests replace it.
var sleep = time.Sleep

var getCmd = &cobra.Command{
	Use:   "get <monitor>",
	Short: "Print the current input of a monitor",
	Long:  `Print the current input of a monitor, using its alias when one is set.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session.Session) error {
			m, err := s.Find(args[0])
			if err != nil {
				return err
			}
			src, err := m.CurrentInput()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Config().DisplayName(m.ID(), src))
			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <monitor> <input>",
	Short: "Switch a monitor to another input",
	Long: `Switch a monitor to another input.

The input may be an alias configured for that monitor, a name such as
"HDMI 1", "hdmi1" or "dp2", or a raw code such as 0x11.

Monitors only acknowledge the write; use --verify to read the input back
after the configured settle delay.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session.Session) error {
			m, err := s.Find(args[0])
			if err != nil {
				return err
			}
			src, err := s.ResolveInput(m.ID(), args[1])
			if err != nil {
				return err
			}

			if err := m.SetInput(src); err != nil {
				return err
			}
			name := s.Config().DisplayName(m.ID(), src)
			logger.Debugf("set %s to %s (0x%02x)", m.ID(), name, inputsource.Encode(src))

			if setVerify {
				delay := config.Get().SettleDelay()
				logger.Debugf("waiting %s before verifying", delay)
				sleep(delay)

				got, err := m.CurrentInput()
				if err != nil {
					return fmt.Errorf("verify: %w", err)
				}
				if got != src {
					return fmt.Errorf("%w: %s reports %s", ErrNotSwitched, m.DisplayName(), s.Config().DisplayName(m.ID(), got))
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", m.DisplayName(), ui.IconSteps, name)
			return nil
		})
	},
}

var inputsCmd = &cobra.Command{
	Use:   "inputs <monitor>",
	Short: "List the inputs a monitor can be switched to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session.Session) error {
			m, err := s.Find(args[0])
			if err != nil {
				return err
			}
			available, err := m.AvailableInputs()
			if err != nil {
				return err
			}

			current, curErr := m.CurrentInput()
			cfg := s.Config()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.FormatMonitor(m.Position(), m.DisplayName(), m.ID()))
			for _, src := range available {
				code := inputsource.Encode(src)
				label := fmt.Sprintf("%s %s", cfg.DisplayName(m.ID(), src), ui.SubtleStyle.Render(fmt.Sprintf("0x%02x", code)))
				fmt.Fprintln(out, ui.FormatInput(label, curErr == nil && current == src, cfg.IsFavorite(m.ID(), code), false))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(inputsCmd)

	setCmd.Flags().BoolVar(&setVerify, "verify", false, "Read the input back after the settle delay")
}
