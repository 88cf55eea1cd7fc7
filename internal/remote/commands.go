package remote

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/session"
)

// ErrUsage is returned for malformed remote command lines.
var ErrUsage = errors.New("usage")

const usage = `commands:
  list                 list monitors and their current input
  get <monitor>        print the current input of a monitor
  inputs <monitor>     list the candidate inputs of a monitor
  set <monitor> <in>   switch a monitor to an input
  favorites            list quick-switch entries
  quick <n>            activate quick-switch entry n
`

// Execute runs one remote command line against s and writes plain text to
// out. Monitors are addressed by identity or position.
func Execute(s *session.Session, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return nil
	}

	switch args[0] {
	case "help":
		fmt.Fprint(out, usage)
		return nil
	case "list":
		return list(s, out)
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("%w: get <monitor>", ErrUsage)
		}
		return get(s, args[1], out)
	case "inputs":
		if len(args) != 2 {
			return fmt.Errorf("%w: inputs <monitor>", ErrUsage)
		}
		return inputs(s, args[1], out)
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("%w: set <monitor> <input>", ErrUsage)
		}
		return set(s, args[1], args[2], out)
	case "favorites":
		return favorites(s, out)
	case "quick":
		if len(args) != 2 {
			return fmt.Errorf("%w: quick <n>", ErrUsage)
		}
		return quick(s, args[1], out)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

func list(s *session.Session, out io.Writer) error {
	monitors := s.Enumerate()
	if len(monitors) == 0 {
		fmt.Fprintln(out, "no monitors found")
		return nil
	}

	cfg := s.Config()
	for _, m := range monitors {
		current := "?"
		if src, err := m.CurrentInput(); err == nil {
			current = cfg.DisplayName(m.ID(), src)
		}
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", m.Position(), m.ID(), m.DisplayName(), current)
	}
	return nil
}

func get(s *session.Session, ref string, out io.Writer) error {
	s.Enumerate()
	m, err := s.Find(ref)
	if err != nil {
		return err
	}

	src, err := m.CurrentInput()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, s.Config().DisplayName(m.ID(), src))
	return nil
}

func inputs(s *session.Session, ref string, out io.Writer) error {
	s.Enumerate()
	m, err := s.Find(ref)
	if err != nil {
		return err
	}

	available, err := m.AvailableInputs()
	if err != nil {
		return err
	}
	cfg := s.Config()
	for _, src := range available {
		marker := " "
		if cfg.IsFavorite(m.ID(), inputsource.Encode(src)) {
			marker = "*"
		}
		fmt.Fprintf(out, "%s 0x%02x\t%s\n", marker, inputsource.Encode(src), cfg.DisplayName(m.ID(), src))
	}
	return nil
}

func set(s *session.Session, ref, input string, out io.Writer) error {
	s.Enumerate()
	m, err := s.Find(ref)
	if err != nil {
		return err
	}

	src, err := s.ResolveInput(m.ID(), input)
	if err != nil {
		return err
	}
	if err := m.SetInput(src); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s -> %s\n", m.DisplayName(), s.Config().DisplayName(m.ID(), src))
	return nil
}

func favorites(s *session.Session, out io.Writer) error {
	quick := session.QuickRows(s.Rows())
	if len(quick) == 0 {
		fmt.Fprintln(out, "no favorites for attached monitors")
		return nil
	}
	for i, row := range quick {
		marker := " "
		if row.Current {
			marker = "*"
		}
		fmt.Fprintf(out, "%d %s %s\n", i+1, marker, row.Label)
	}
	return nil
}

func quick(s *session.Session, arg string, out io.Writer) error {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return fmt.Errorf("%w: quick entry must be a positive number", ErrUsage)
	}

	rows := session.QuickRows(s.Rows())
	if n > len(rows) {
		return fmt.Errorf("quick entry %d not found (have %d)", n, len(rows))
	}
	row := rows[n-1]
	if err := s.Activate(row); err != nil {
		return err
	}
	fmt.Fprintln(out, row.Label)
	return nil
}
