package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/monitor-switch/internal/config"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/store"
	"github.com/bnema/monitor-switch/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Open the interactive quick-switch menu",
	Long: `Open the interactive quick-switch menu.

The menu lists favorites first, then every monitor with its inputs. The
current input of each monitor is marked, and favorites can be toggled in
place. When menu.watch_config is set, changes saved by other
monitor-switch processes are picked up live.`,
	Args: cobra.NoArgs,
	RunE: runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

func runMenu(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := config.Get()
	opts := ui.MenuOptions{Settle: cfg.SettleDelay()}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Menu.WatchConfig {
		changes := make(chan struct{}, 1)
		opts.Changes = changes

		watcher := store.NewWatcher(s.Config().Path())
		go func() {
			err := watcher.Watch(ctx, func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Debugf("config watcher stopped: %v", err)
			}
		}()
	}

	p := tea.NewProgram(ui.NewMenuModel(s, opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("menu: %w", err)
	}
	return nil
}
