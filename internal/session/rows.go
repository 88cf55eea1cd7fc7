package session

import (
	"fmt"

	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/monitor"
)

// RowKind tells a front-end how to render a Row.
type RowKind int

const (
	RowHeader RowKind = iota
	RowInput
	RowSeparator
)

// QuickSwitchTitle heads the favorites section.
const QuickSwitchTitle = "Quick Switch"

// Row is one line of the switch menu. Input rows carry the monitor position
// and input they switch to.
type Row struct {
	Kind      RowKind
	Label     string
	Monitor   string
	MonitorID string
	Position  int
	Input     inputsource.Source
	Current   bool
	Favorite  bool
	// Quick marks rows of the favorites section.
	Quick bool
}

// Activatable reports whether selecting the row switches an input.
func (r Row) Activatable() bool {
	return r.Kind == RowInput
}

type monitorState struct {
	m       *monitor.Monitor
	current inputsource.Source
	hasCur  bool
	inputs  []inputsource.Source
}

// Rows rescans the monitors and builds the switch menu: a quick-switch
// section with the favorites of monitors currently attached, in favorite
// order, followed by one section per monitor listing its candidate inputs.
// Read failures degrade silently: the current marker is dropped and the
// monitor keeps its candidate list.
func (s *Session) Rows() []Row {
	monitors := s.Enumerate()

	states := make([]monitorState, 0, len(monitors))
	byID := make(map[string]int, len(monitors))
	for i, m := range monitors {
		st := monitorState{m: m}
		if cur, err := m.CurrentInput(); err == nil {
			st.current, st.hasCur = cur, true
		}
		st.inputs, _ = m.AvailableInputs()
		states = append(states, st)
		byID[m.ID()] = i
	}

	cfg := s.config
	var rows []Row

	favorites := cfg.ListFavorites()
	if len(favorites) > 0 {
		var quick []Row
		for _, fav := range favorites {
			i, ok := byID[fav.MonitorID]
			if !ok {
				continue
			}
			st := states[i]
			input := fav.Input()
			quick = append(quick, Row{
				Kind:      RowInput,
				Label:     fmt.Sprintf("%s → %s", cfg.DisplayName(st.m.ID(), input), st.m.DisplayName()),
				Monitor:   st.m.DisplayName(),
				MonitorID: st.m.ID(),
				Position:  st.m.Position(),
				Input:     input,
				Current:   st.hasCur && st.current == input,
				Favorite:  true,
				Quick:     true,
			})
		}
		rows = append(rows, Row{Kind: RowHeader, Label: QuickSwitchTitle})
		rows = append(rows, quick...)
		rows = append(rows, Row{Kind: RowSeparator})
	}

	for _, st := range states {
		rows = append(rows, Row{
			Kind:      RowHeader,
			Label:     st.m.DisplayName(),
			Monitor:   st.m.DisplayName(),
			MonitorID: st.m.ID(),
			Position:  st.m.Position(),
		})
		for _, input := range st.inputs {
			rows = append(rows, Row{
				Kind:      RowInput,
				Label:     cfg.DisplayName(st.m.ID(), input),
				Monitor:   st.m.DisplayName(),
				MonitorID: st.m.ID(),
				Position:  st.m.Position(),
				Input:     input,
				Current:   st.hasCur && st.current == input,
				Favorite:  cfg.IsFavorite(st.m.ID(), inputsource.Encode(input)),
			})
		}
		rows = append(rows, Row{Kind: RowSeparator})
	}

	return rows
}

// Activate switches the input a row points at. Non-input rows are ignored.
func (s *Session) Activate(row Row) error {
	if !row.Activatable() {
		return nil
	}
	return s.SetInput(row.Position, row.Input)
}

// QuickRows filters rows down to the quick-switch entries.
func QuickRows(rows []Row) []Row {
	var quick []Row
	for _, r := range rows {
		if r.Quick {
			quick = append(quick, r)
		}
	}
	return quick
}
