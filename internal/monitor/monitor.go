// Package monitor enumerates DDC/CI capable displays and switches their
// video input.
package monitor

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bnema/monitor-switch/internal/ddc"
	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/logger"
)

var (
	// ErrCommunication is matched by every transport failure.
	ErrCommunication = errors.New("failed to communicate with monitor")
	// ErrNotFound means a position or identity has no current match.
	ErrNotFound = errors.New("monitor not found")
	// ErrNotSupported means the monitor declined the feature.
	ErrNotSupported = errors.New("operation not supported by this monitor")
)

// CommunicationError wraps a bus failure during a read or write.
type CommunicationError struct {
	Op      string
	Monitor string
	Err     error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Monitor, ErrCommunication, e.Err)
}

func (e *CommunicationError) Unwrap() []error {
	return []error{ErrCommunication, e.Err}
}

// commonInputs is returned by AvailableInputs regardless of what the
// monitor advertises.
var commonInputs = []inputsource.Source{
	inputsource.HDMI1,
	inputsource.HDMI2,
	inputsource.DisplayPort1,
	inputsource.DisplayPort2,
	inputsource.USBC1,
	inputsource.USBC2,
}

// Monitor is a handle on one display from a single enumeration. It must not
// be reused after the next Enumerate call.
type Monitor struct {
	display      ddc.Display
	bus          ddc.Bus
	position     int
	id           string
	capabilities string
}

// ID returns the identity used as config key. It is built from the vendor
// identifier plus the serial number, the binary serial, or as a last resort
// the position. Position based ids can point to another display after a
// hot-plug.
func (m *Monitor) ID() string {
	return m.id
}

// Position is the index of the monitor in the enumeration that produced it.
func (m *Monitor) Position() int {
	return m.position
}

func (m *Monitor) ModelName() (string, bool) {
	return m.display.ModelName, m.display.ModelName != ""
}

func (m *Monitor) ManufacturerID() (string, bool) {
	return m.display.ManufacturerID, m.display.ManufacturerID != ""
}

// DisplayName returns the model name, the manufacturer or "Monitor N".
func (m *Monitor) DisplayName() string {
	if name, ok := m.ModelName(); ok {
		return name
	}
	if mfg, ok := m.ManufacturerID(); ok {
		return mfg
	}
	return fmt.Sprintf("Monitor %d", m.position+1)
}

// Display returns the transport description of the monitor.
func (m *Monitor) Display() ddc.Display {
	return m.display
}

// CapabilitiesString is the last capability string fetched by
// AvailableInputs, empty if none was obtained.
func (m *Monitor) CapabilitiesString() string {
	return m.capabilities
}

// CurrentInput reads the input select feature. Failures are not retried.
func (m *Monitor) CurrentInput() (inputsource.Source, error) {
	value, err := m.bus.GetVCP(m.display, ddc.FeatureInputSelect)
	if err != nil {
		return inputsource.Unknown, &CommunicationError{Op: "get input", Monitor: m.id, Err: err}
	}
	// Input select lives in the low byte; some monitors set the high byte.
	return inputsource.Decode(value & 0xFF), nil
}

// SetInput writes the input select feature. A nil error only means the
// write was acknowledged, not that the monitor switched.
func (m *Monitor) SetInput(source inputsource.Source) error {
	if err := m.bus.SetVCP(m.display, ddc.FeatureInputSelect, inputsource.Encode(source)); err != nil {
		return &CommunicationError{Op: "set input", Monitor: m.id, Err: err}
	}
	return nil
}

// AvailableInputs refreshes the capability string and returns the common
// candidate inputs. The capability string is not parsed.
func (m *Monitor) AvailableInputs() ([]inputsource.Source, error) {
	caps, err := m.bus.Capabilities(m.display)
	if err != nil {
		logger.Debugf("capabilities for %s unavailable: %v", m.id, err)
	} else {
		m.capabilities = caps
	}

	return append([]inputsource.Source(nil), commonInputs...), nil
}

// Directory lists the monitors attached to a bus.
type Directory struct {
	bus ddc.Bus
}

// NewDirectory creates a directory over bus. A nil bus yields no monitors.
func NewDirectory(bus ddc.Bus) *Directory {
	return &Directory{bus: bus}
}

// Enumerate scans the bus. Nothing is cached, and a failed scan returns an
// empty list rather than an error.
func (d *Directory) Enumerate() []*Monitor {
	if d == nil || d.bus == nil {
		return []*Monitor{}
	}

	displays, err := d.bus.Detect()
	if err != nil {
		logger.Debugf("monitor scan failed: %v", err)
		return []*Monitor{}
	}

	monitors := make([]*Monitor, 0, len(displays))
	seen := make(map[string]bool, len(displays))
	for i, display := range displays {
		m := &Monitor{
			display:  display,
			bus:      d.bus,
			position: i,
			id:       identity(display, i),
		}
		for seen[m.id] {
			m.id = m.id + "-" + strconv.Itoa(i)
		}
		seen[m.id] = true
		monitors = append(monitors, m)
	}

	logger.Debugf("found %d monitor(s) on %s", len(monitors), d.bus.Name())
	return monitors
}

// Close releases the underlying bus.
func (d *Directory) Close() error {
	if d == nil || d.bus == nil {
		return nil
	}
	return d.bus.Close()
}

// Find resolves ref against monitors, first as an identity then as a
// position.
func Find(monitors []*Monitor, ref string) (*Monitor, error) {
	for _, m := range monitors {
		if m.id == ref {
			return m, nil
		}
	}

	if pos, err := strconv.Atoi(ref); err == nil {
		if pos >= 0 && pos < len(monitors) {
			return monitors[pos], nil
		}
		return nil, fmt.Errorf("%w: position %d (have %d)", ErrNotFound, pos, len(monitors))
	}

	return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
}

func identity(d ddc.Display, position int) string {
	switch {
	case d.SerialNumber != "":
		return fmt.Sprintf("%s-%s", d.ID, d.SerialNumber)
	case d.HasSerial:
		return fmt.Sprintf("%s-%d", d.ID, d.Serial)
	default:
		return fmt.Sprintf("%s-%d", d.ID, position)
	}
}
