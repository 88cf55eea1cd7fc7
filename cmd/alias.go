package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/monitor"
	"github.com/bnema/monitor-switch/internal/session"
	"github.com/bnema/monitor-switch/internal/ui"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// promptAlias asks for an alias interactively. Tests replace it.
var promptAlias = func(monitorName, inputName, current string) (string, error) {
	alias := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Alias for %s on %s", inputName, monitorName)).
				Description("Shown instead of the input name in menus and listings").
				Value(&alias),
		),
	)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("alias prompt cancelled: %w", err)
	}
	return alias, nil
}

var aliasCmd = &cobra.Command{
	Use:   "alias",
	Short: "Manage per-monitor input aliases",
}

var aliasSetCmd = &cobra.Command{
	Use:   "set <monitor> <input> [alias]",
	Short: "Name an input of a monitor",
	Long: `Name an input of a monitor. The alias replaces the input name in the
menu and listings, and can be used with set and favorite.

Without an alias argument you are prompted for one.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session.Session) error {
			id, name, err := monitorRef(s, args[0])
			if err != nil {
				return err
			}
			src, err := s.ResolveInput(id, args[1])
			if err != nil {
				return err
			}
			code := inputsource.Encode(src)

			var alias string
			if len(args) == 3 {
				alias = args[2]
			} else {
				current, _ := s.Config().Alias(id, code)
				if alias, err = promptAlias(name, inputsource.Name(src), current); err != nil {
					return err
				}
			}

			// An empty alias clears the name
			if alias == "" {
				if err := s.RemoveAlias(id, code); err != nil {
					return err
				}
				logger.Infof("Removed alias of %s on %s", inputsource.Name(src), name)
				return nil
			}

			if err := s.SetAlias(id, code, alias); err != nil {
				return err
			}
			logger.Infof("%s on %s is now %q", inputsource.Name(src), name, alias)
			return nil
		})
	},
}

var aliasRemoveCmd = &cobra.Command{
	Use:   "remove <monitor> <input>",
	Short: "Remove an input alias",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session.Session) error {
			id, name, err := monitorRef(s, args[0])
			if err != nil {
				return err
			}
			src, err := s.ResolveInput(id, args[1])
			if err != nil {
				return err
			}

			if err := s.RemoveAlias(id, inputsource.Encode(src)); err != nil {
				return err
			}
			logger.Infof("Removed alias of %s on %s", inputsource.Name(src), name)
			return nil
		})
	},
}

var aliasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every configured alias",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session.Session) error {
			cfg := s.Config()
			out := cmd.OutOrStdout()

			ids := make([]string, 0, len(cfg.Monitors))
			for id, mc := range cfg.Monitors {
				if mc != nil && len(mc.InputAliases) > 0 {
					ids = append(ids, id)
				}
			}
			if len(ids) == 0 {
				fmt.Fprintln(out, ui.SubtleStyle.Render("No aliases configured"))
				return nil
			}
			slices.Sort(ids)

			for _, id := range ids {
				var heading string
				if m, err := s.MonitorByID(id); err == nil {
					heading = ui.FormatMonitor(m.Position(), m.DisplayName(), id)
				} else {
					heading = ui.SubheaderStyle.Render(id) + " " + ui.SubtleStyle.Render("(not attached)")
				}
				fmt.Fprintln(out, heading)

				aliases := cfg.Monitors[id].InputAliases
				codes := make([]uint16, 0, len(aliases))
				for code := range aliases {
					codes = append(codes, code)
				}
				slices.Sort(codes)
				for _, code := range codes {
					fmt.Fprintf(out, "   %-14s %s\n", inputsource.Name(inputsource.Decode(code)), aliases[code])
				}
			}
			return nil
		})
	},
}

// monitorRef resolves a monitor reference to its identity and a display
// name. Identities of monitors that are not attached are accepted when the
// store knows them, so their aliases and favorites can still be edited.
func monitorRef(s *session.Session, ref string) (id, name string, err error) {
	m, err := s.Find(ref)
	if err == nil {
		return m.ID(), m.DisplayName(), nil
	}
	if !errors.Is(err, monitor.ErrNotFound) {
		return "", "", err
	}

	cfg := s.Config()
	if _, ok := cfg.Monitors[ref]; ok {
		return ref, ref, nil
	}
	for _, fav := range cfg.ListFavorites() {
		if fav.MonitorID == ref {
			return ref, ref, nil
		}
	}
	return "", "", fmt.Errorf("%w (attached: %s)", err, attachedIDs(s))
}

func attachedIDs(s *session.Session) string {
	var ids []string
	for _, m := range s.Monitors() {
		ids = append(ids, m.ID())
	}
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}

func init() {
	rootCmd.AddCommand(aliasCmd)

	aliasCmd.AddCommand(aliasSetCmd)
	aliasCmd.AddCommand(aliasRemoveCmd)
	aliasCmd.AddCommand(aliasListCmd)
}
