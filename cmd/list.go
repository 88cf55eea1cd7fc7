package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/session"
	"github.com/bnema/monitor-switch/internal/ui"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	listJSON bool
	listYAML bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List DDC/CI monitors and their current input",
	Long: `List every monitor that answers DDC/CI with its stable identity,
its position in this scan and the input it currently shows.

Monitors can be addressed by identity or position in other commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listJSON && listYAML {
			return fmt.Errorf("--json and --yaml are mutually exclusive")
		}
		return withSession(func(s *session.Session) error {
			entries := monitorEntries(s)
			out := cmd.OutOrStdout()
			switch {
			case listJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			case listYAML:
				enc := yaml.NewEncoder(out)
				defer enc.Close()
				return enc.Encode(entries)
			default:
				return renderMonitorTable(out, entries)
			}
		})
	},
}

// monitorEntry is one monitor as printed by list
type monitorEntry struct {
	Position     int    `json:"position" yaml:"position"`
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Model        string `json:"model,omitempty" yaml:"model,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Bus          string `json:"bus" yaml:"bus"`
	Input        string `json:"input,omitempty" yaml:"input,omitempty"`
	InputCode    uint16 `json:"input_code,omitempty" yaml:"input_code,omitempty"`
}

func monitorEntries(s *session.Session) []monitorEntry {
	cfg := s.Config()
	entries := []monitorEntry{}
	for _, m := range s.Monitors() {
		e := monitorEntry{
			Position: m.Position(),
			ID:       m.ID(),
			Name:     m.DisplayName(),
			Bus:      m.Display().Bus,
		}
		e.Model, _ = m.ModelName()
		e.Manufacturer, _ = m.ManufacturerID()
		if src, err := m.CurrentInput(); err == nil {
			e.Input = cfg.DisplayName(m.ID(), src)
			e.InputCode = inputsource.Encode(src)
		}
		entries = append(entries, e)
	}
	return entries
}

func renderMonitorTable(out io.Writer, entries []monitorEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, ui.SubtleStyle.Render("No DDC/CI monitors found"))
		return err
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		input := "?"
		if e.Input != "" {
			input = fmt.Sprintf("%s (0x%02x)", e.Input, e.InputCode)
		}
		rows = append(rows, []string{strconv.Itoa(e.Position), e.Name, e.ID, input})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.ColorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return lipgloss.NewStyle().
					Foreground(ui.ColorPrimary).
					Bold(true).
					Padding(0, 1)
			case col == 0:
				return lipgloss.NewStyle().
					Foreground(ui.ColorInfo).
					Bold(true).
					Padding(0, 1)
			case col == 3:
				return lipgloss.NewStyle().
					Foreground(ui.ColorCurrent).
					Padding(0, 1)
			default:
				return lipgloss.NewStyle().
					Foreground(ui.ColorText).
					Padding(0, 1)
			}
		}).
		Headers("POS", "NAME", "ID", "INPUT").
		Rows(rows...)

	_, err := fmt.Fprintln(out, t.String())
	return err
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print as JSON")
	listCmd.Flags().BoolVar(&listYAML, "yaml", false, "Print as YAML")
}
