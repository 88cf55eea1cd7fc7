package cmd

import (
	"fmt"

	"github.com/bnema/monitor-switch/internal/config"
	"github.com/bnema/monitor-switch/internal/ddc"
	"github.com/bnema/monitor-switch/internal/monitor"
	"github.com/bnema/monitor-switch/internal/session"
)

// openBus creates the DDC transport from settings. Tests replace it.
var openBus = func() (ddc.Bus, error) {
	cfg := config.Get()
	return ddc.New(ddc.Options{
		Backend:     cfg.DDC.Backend,
		DdcutilPath: cfg.DDC.DdcutilPath,
		ExtraArgs:   cfg.DDC.ExtraArgs,
	})
}

// openSession creates a session over the configured transport with the
// store loaded from its configured location
func openSession() (*session.Session, error) {
	bus, err := openBus()
	if err != nil {
		return nil, fmt.Errorf("failed to open DDC/CI transport: %w", err)
	}
	return session.New(monitor.NewDirectory(bus), ""), nil
}

// withSession opens a session, scans the monitors and runs fn
func withSession(fn func(s *session.Session) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	s.Enumerate()
	return fn(s)
}

// withRows is withSession for commands that render the switch rows. Rows
// does its own scan.
func withRows(fn func(s *session.Session, rows []session.Row) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s, s.Rows())
}
