package cmd

import (
	"fmt"
	"strconv"

	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/session"
	"github.com/bnema/monitor-switch/internal/ui"
	"github.com/spf13/cobra"
)

var favoriteCmd = &cobra.Command{
	Use:     "favorite",
	Aliases: []string{"fav"},
	Short:   "Manage quick-switch favorites",
}

var favoriteAddCmd = &cobra.Command{
	Use:   "add <monitor> <input>",
	Short: "Add a monitor input to the quick-switch list",
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

			if err := s.AddFavorite(id, inputsource.Encode(src)); err != nil {
				return err
			}
			logger.Infof("Added %s on %s to favorites", s.Config().DisplayName(id, src), name)
			return nil
		})
	},
}

var favoriteRemoveCmd = &cobra.Command{
	Use:   "remove <monitor> <input>",
	Short: "Remove a monitor input from the quick-switch list",
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

			if err := s.RemoveFavorite(id, inputsource.Encode(src)); err != nil {
				return err
			}
			logger.Infof("Removed %s on %s from favorites", s.Config().DisplayName(id, src), name)
			return nil
		})
	},
}

var favoriteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites in quick-switch order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRows(func(s *session.Session, rows []session.Row) error {
			out := cmd.OutOrStdout()
			cfg := s.Config()

			favorites := cfg.ListFavorites()
			if len(favorites) == 0 {
				fmt.Fprintln(out, ui.SubtleStyle.Render("No favorites"))
				return nil
			}

			printQuickRows(cmd, session.QuickRows(rows))

			// Favorites of monitors that are not attached follow the
			// numbered entries, in favorite order
			for _, fav := range favorites {
				if _, err := s.MonitorByID(fav.MonitorID); err == nil {
					continue
				}
				fmt.Fprintf(out, "   %s %s\n",
					ui.SubtleStyle.Render(fmt.Sprintf("%s %s %s", cfg.DisplayName(fav.MonitorID, fav.Input()), ui.IconSteps, fav.MonitorID)),
					ui.SubtleStyle.Render("(not attached)"))
			}
			return nil
		})
	},
}

var quickCmd = &cobra.Command{
	Use:   "quick [n]",
	Short: "Activate quick-switch entry n, or list the entries",
	Long: `Activate a quick-switch entry. Entries are the favorites of attached
monitors, numbered from 1 in favorite order, as shown by the menu.

Without an argument the entries are listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRows(func(s *session.Session, all []session.Row) error {
			rows := session.QuickRows(all)
			if len(args) == 0 {
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), ui.SubtleStyle.Render("No favorites for attached monitors"))
					return nil
				}
				printQuickRows(cmd, rows)
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("quick entry must be a positive number, got %q", args[0])
			}
			if n > len(rows) {
				return fmt.Errorf("quick entry %d not found (have %d)", n, len(rows))
			}

			row := rows[n-1]
			if err := s.Activate(row); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), row.Label)
			return nil
		})
	},
}

func printQuickRows(cmd *cobra.Command, rows []session.Row) {
	for i, row := range rows {
		label := fmt.Sprintf("%d. %s", i+1, row.Label)
		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatInput(label, row.Current, true, false))
	}
}

func init() {
	rootCmd.AddCommand(favoriteCmd)
	rootCmd.AddCommand(quickCmd)

	favoriteCmd.AddCommand(favoriteAddCmd)
	favoriteCmd.AddCommand(favoriteRemoveCmd)
	favoriteCmd.AddCommand(favoriteListCmd)
}
