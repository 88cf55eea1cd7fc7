// Package ddc is the seam between the monitor core and whatever actually
// talks DDC/CI to the hardware. The core only needs to list attached
// displays and read or write a single VCP feature register.
package ddc

import (
	"errors"
	"fmt"

	"github.com/bnema/monitor-switch/internal/logger"
)

// FeatureInputSelect is the MCCS input source VCP code.
const FeatureInputSelect byte = 0x60

// ErrNoBackend is returned by New when no transport could be created.
var ErrNoBackend = errors.New("no DDC/CI backend available")

// Display is what the transport reports about one attached monitor.
type Display struct {
	Bus            string // backend address, e.g. /dev/i2c-4
	ID             string // vendor or bus identifier
	SerialNumber   string // EDID ASCII serial, empty if absent
	Serial         uint32 // EDID binary serial
	HasSerial      bool
	ModelName      string
	ManufacturerID string
}

// Bus reads and writes VCP features on attached displays.
type Bus interface {
	Name() string
	Detect() ([]Display, error)
	GetVCP(d Display, feature byte) (uint16, error)
	SetVCP(d Display, feature byte, value uint16) error
	Capabilities(d Display) (string, error)
	Close() error
}

// Options selects and configures the transport.
type Options struct {
	Backend     string   // auto, ddcutil or none
	DdcutilPath string   // defaults to "ddcutil" on PATH
	ExtraArgs   []string // passed to every ddcutil invocation
}

// New creates a Bus, trying backends in order of preference.
func New(opts Options) (Bus, error) {
	type candidate struct {
		name   string
		create func(Options) (Bus, error)
	}

	var candidates []candidate
	switch opts.Backend {
	case "", "auto", "ddcutil":
		candidates = append(candidates, candidate{"ddcutil", newDdcutilBackend})
	case "none":
		return nil, fmt.Errorf("%w: disabled by configuration", ErrNoBackend)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrNoBackend, opts.Backend)
	}

	var errs []error
	for _, c := range candidates {
		logger.Debugf("ddc.New: trying backend %s", c.name)
		bus, err := c.create(opts)
		if err == nil {
			logger.Debugf("ddc.New: using backend %s", c.name)
			return bus, nil
		}
		logger.Debugf("ddc.New: backend %s failed: %v", c.name, err)
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(errs...))
}
