// Package ddctest provides an in-memory ddc.Bus for tests.
package ddctest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/monitor-switch/internal/ddc"
)

// ErrBus is the error returned for injected failures.
var ErrBus = errors.New("simulated DDC/CI failure")

// Write records one SetVCP call.
type Write struct {
	Bus     string
	Feature byte
	Value   uint16
}

// Bus is a fake transport. Registers are keyed by display bus and feature.
type Bus struct {
	mu sync.Mutex

	displays     []ddc.Display
	registers    map[string]map[byte]uint16
	capabilities map[string]string

	// DetectErr, ReadErr, WriteErr and CapabilitiesErr inject failures.
	DetectErr       error
	ReadErr         error
	WriteErr        error
	CapabilitiesErr error

	Writes       []Write
	Reads        int
	Detects      int
	CapsRequests int
	Closed       bool
}

// New returns a Bus reporting the given displays, in order.
func New(displays ...ddc.Display) *Bus {
	b := &Bus{
		registers:    make(map[string]map[byte]uint16),
		capabilities: make(map[string]string),
	}
	b.SetDisplays(displays...)
	return b
}

// Display is a shorthand for a display with vendor id and serial number.
func Display(bus, id, serial, model string) ddc.Display {
	return ddc.Display{
		Bus:            bus,
		ID:             id,
		SerialNumber:   serial,
		ModelName:      model,
		ManufacturerID: id,
	}
}

// SetDisplays replaces the attached displays, simulating a hot-plug.
func (b *Bus) SetDisplays(displays ...ddc.Display) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.displays = append([]ddc.Display(nil), displays...)
}

// Displays returns the currently attached displays.
func (b *Bus) Displays() []ddc.Display {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ddc.Display(nil), b.displays...)
}

// SetRegister sets the value a later GetVCP will return.
func (b *Bus) SetRegister(bus string, feature byte, value uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.registers[bus] == nil {
		b.registers[bus] = make(map[byte]uint16)
	}
	b.registers[bus][feature] = value
}

// Register returns the current register value.
func (b *Bus) Register(bus string, feature byte) (uint16, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.registers[bus][feature]
	return v, ok
}

// SetCapabilities sets the capability string reported for a bus.
func (b *Bus) SetCapabilities(bus, caps string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.capabilities[bus] = caps
}

func (b *Bus) Name() string {
	return "fake"
}

func (b *Bus) Detect() ([]ddc.Display, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Detects++
	if b.DetectErr != nil {
		return nil, b.DetectErr
	}
	return append([]ddc.Display(nil), b.displays...), nil
}

func (b *Bus) GetVCP(d ddc.Display, feature byte) (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Reads++
	if b.ReadErr != nil {
		return 0, b.ReadErr
	}
	if !b.attached(d.Bus) {
		return 0, fmt.Errorf("%w: %s not responding", ErrBus, d.Bus)
	}
	v, ok := b.registers[d.Bus][feature]
	if !ok {
		return 0, fmt.Errorf("%w: feature %02x unsupported on %s", ErrBus, feature, d.Bus)
	}
	return v, nil
}

func (b *Bus) SetVCP(d ddc.Display, feature byte, value uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WriteErr != nil {
		return b.WriteErr
	}
	if !b.attached(d.Bus) {
		return fmt.Errorf("%w: %s not responding", ErrBus, d.Bus)
	}
	b.Writes = append(b.Writes, Write{Bus: d.Bus, Feature: feature, Value: value})
	if b.registers[d.Bus] == nil {
		b.registers[d.Bus] = make(map[byte]uint16)
	}
	b.registers[d.Bus][feature] = value
	return nil
}

func (b *Bus) Capabilities(d ddc.Display) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CapsRequests++
	if b.CapabilitiesErr != nil {
		return "", b.CapabilitiesErr
	}
	return b.capabilities[d.Bus], nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
	return nil
}

func (b *Bus) attached(bus string) bool {
	for _, d := range b.displays {
		if d.Bus == bus {
			return true
		}
	}
	return false
}
