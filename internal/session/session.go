// Package session holds the state a front-end keeps between calls: the last
// monitor snapshot and the loaded alias/favorite store.
//
// A Session is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves.
package session

import (
	"fmt"

	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/monitor"
	"github.com/bnema/monitor-switch/internal/store"
)

// Session pairs a monitor directory with a config document.
type Session struct {
	dir        *monitor.Directory
	storePath  string
	monitors   []*monitor.Monitor
	generation uint64
	config     *store.Config
}

// New creates a session and loads the store at storePath, or the default
// location when storePath is empty. No scan is performed until Enumerate.
func New(dir *monitor.Directory, storePath string) *Session {
	s := &Session{
		dir:       dir,
		storePath: storePath,
		monitors:  []*monitor.Monitor{},
	}
	s.ReloadConfig()
	return s
}

// Enumerate rescans and replaces the snapshot. Handles from a previous
// snapshot must not be used afterwards.
func (s *Session) Enumerate() []*monitor.Monitor {
	s.monitors = s.dir.Enumerate()
	s.generation++
	return s.Monitors()
}

// Monitors returns the current snapshot without rescanning.
func (s *Session) Monitors() []*monitor.Monitor {
	return append([]*monitor.Monitor(nil), s.monitors...)
}

// Generation counts Enumerate calls.
func (s *Session) Generation() uint64 {
	return s.generation
}

// Monitor addresses the snapshot by position. A position that was valid in
// an earlier snapshot silently targets whatever occupies it now.
func (s *Session) Monitor(pos int) (*monitor.Monitor, error) {
	if pos < 0 || pos >= len(s.monitors) {
		return nil, fmt.Errorf("%w: position %d (have %d)", monitor.ErrNotFound, pos, len(s.monitors))
	}
	return s.monitors[pos], nil
}

// MonitorByID addresses the snapshot by identity.
func (s *Session) MonitorByID(id string) (*monitor.Monitor, error) {
	for _, m := range s.monitors {
		if m.ID() == id {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", monitor.ErrNotFound, id)
}

// Find resolves ref as an identity or a position in the snapshot.
func (s *Session) Find(ref string) (*monitor.Monitor, error) {
	return monitor.Find(s.monitors, ref)
}

func (s *Session) CurrentInput(pos int) (inputsource.Source, error) {
	m, err := s.Monitor(pos)
	if err != nil {
		return inputsource.Unknown, err
	}
	return m.CurrentInput()
}

func (s *Session) SetInput(pos int, source inputsource.Source) error {
	m, err := s.Monitor(pos)
	if err != nil {
		return err
	}
	return m.SetInput(source)
}

func (s *Session) AvailableInputs(pos int) ([]inputsource.Source, error) {
	m, err := s.Monitor(pos)
	if err != nil {
		return nil, err
	}
	return m.AvailableInputs()
}

// ResolveInput maps text to an input. An alias set for the monitor wins
// over the names and codes inputsource.Parse accepts.
func (s *Session) ResolveInput(monitorID, text string) (inputsource.Source, error) {
	for _, src := range inputsource.All() {
		if alias, ok := s.config.Alias(monitorID, inputsource.Encode(src)); ok && alias != "" && alias == text {
			return src, nil
		}
	}
	return inputsource.Parse(text)
}

// Config returns the loaded document. Mutations are kept in memory until
// SaveConfig.
func (s *Session) Config() *store.Config {
	return s.config
}

// ReloadConfig discards in-memory changes and rereads the store.
func (s *Session) ReloadConfig() {
	if s.storePath != "" {
		s.config = store.LoadFrom(s.storePath)
	} else {
		s.config = store.Load()
	}
}

func (s *Session) SaveConfig() error {
	return s.config.Save()
}

// SetAlias stores an alias and saves the whole document.
func (s *Session) SetAlias(monitorID string, input uint16, alias string) error {
	s.config.SetAlias(monitorID, input, alias)
	return s.save("set alias")
}

func (s *Session) RemoveAlias(monitorID string, input uint16) error {
	s.config.RemoveAlias(monitorID, input)
	return s.save("remove alias")
}

func (s *Session) AddFavorite(monitorID string, input uint16) error {
	s.config.AddFavorite(monitorID, input)
	return s.save("add favorite")
}

func (s *Session) RemoveFavorite(monitorID string, input uint16) error {
	s.config.RemoveFavorite(monitorID, input)
	return s.save("remove favorite")
}

// Close releases the monitor directory. The snapshot is dropped.
func (s *Session) Close() error {
	s.monitors = []*monitor.Monitor{}
	return s.dir.Close()
}

func (s *Session) save(op string) error {
	if err := s.config.Save(); err != nil {
		logger.Debugf("%s: %v", op, err)
		return err
	}
	return nil
}
