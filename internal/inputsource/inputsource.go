// Package inputsource maps MCCS input-select codes (VCP feature 0x60) to
// named video inputs and back.
package inputsource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Source is a monitor video input, identified by its MCCS code.
type Source uint16

const (
	VGA1         Source = 0x01
	VGA2         Source = 0x02
	DVI1         Source = 0x03
	DVI2         Source = 0x04
	Composite1   Source = 0x05
	Composite2   Source = 0x06
	SVideo1      Source = 0x07
	SVideo2      Source = 0x08
	Tuner1       Source = 0x09
	Tuner2       Source = 0x0A
	Tuner3       Source = 0x0B
	Component1   Source = 0x0C
	Component2   Source = 0x0D
	Component3   Source = 0x0E
	DisplayPort1 Source = 0x0F
	DisplayPort2 Source = 0x10
	HDMI1        Source = 0x11
	HDMI2        Source = 0x12
	HDMI3        Source = 0x13
	HDMI4        Source = 0x14
	USBC1        Source = 0x15
	USBC2        Source = 0x16
	USBC3        Source = 0x17

	// Unknown absorbs every code outside the table above.
	Unknown Source = 0xFF
)

// ErrUnknownInput is returned by Parse for text that names no known input.
var ErrUnknownInput = errors.New("unknown input source")

var names = map[Source]string{
	VGA1:         "VGA 1",
	VGA2:         "VGA 2",
	DVI1:         "DVI 1",
	DVI2:         "DVI 2",
	Composite1:   "Composite 1",
	Composite2:   "Composite 2",
	SVideo1:      "S-Video 1",
	SVideo2:      "S-Video 2",
	Tuner1:       "Tuner 1",
	Tuner2:       "Tuner 2",
	Tuner3:       "Tuner 3",
	Component1:   "Component 1",
	Component2:   "Component 2",
	Component3:   "Component 3",
	DisplayPort1: "DisplayPort 1",
	DisplayPort2: "DisplayPort 2",
	HDMI1:        "HDMI 1",
	HDMI2:        "HDMI 2",
	HDMI3:        "HDMI 3",
	HDMI4:        "HDMI 4",
	USBC1:        "USB-C 1",
	USBC2:        "USB-C 2",
	USBC3:        "USB-C 3",
	Unknown:      "Unknown",
}

// Decode returns the input for a VCP value. Codes outside the known set,
// including 0xFF, decode to Unknown.
func Decode(code uint16) Source {
	s := Source(code)
	if s.Known() {
		return s
	}
	return Unknown
}

// Encode returns the VCP value for s. Unknown (and anything else outside the
// known set) encodes as 0xFF, so an unrecognized code read from a monitor
// does not survive a decode/encode round trip.
func Encode(s Source) uint16 {
	if s.Known() {
		return uint16(s)
	}
	return uint16(Unknown)
}

// Name returns the human readable name of s.
func Name(s Source) string {
	if !s.Known() {
		return names[Unknown]
	}
	return names[s]
}

// Known reports whether s is one of the named MCCS inputs.
func (s Source) Known() bool {
	return s >= VGA1 && s <= USBC3
}

func (s Source) String() string {
	return Name(s)
}

// All returns every known input in code order.
func All() []Source {
	all := make([]Source, 0, int(USBC3))
	for s := VGA1; s <= USBC3; s++ {
		all = append(all, s)
	}
	return all
}

// Parse accepts a display name ("HDMI 1"), a compact token ("hdmi1", "dp2",
// "usb-c1") or a numeric code ("17", "0x11").
func Parse(text string) (Source, error) {
	token := normalize(text)
	if token == "" {
		return Unknown, fmt.Errorf("%w: empty name", ErrUnknownInput)
	}

	if code, err := parseCode(token); err == nil {
		if s := Decode(uint16(code)); s.Known() {
			return s, nil
		}
		return Unknown, fmt.Errorf("%w: code %#x", ErrUnknownInput, code)
	}

	for s := VGA1; s <= USBC3; s++ {
		if normalize(names[s]) == token {
			return s, nil
		}
	}

	if alias, ok := shortNames[token]; ok {
		return alias, nil
	}

	return Unknown, fmt.Errorf("%w: %q", ErrUnknownInput, text)
}

// parseCode reads a decimal code, or a hex one with a 0x prefix. Leading
// zeros stay decimal.
func parseCode(token string) (uint64, error) {
	if hex, ok := strings.CutPrefix(token, "0x"); ok {
		return strconv.ParseUint(hex, 16, 16)
	}
	return strconv.ParseUint(token, 10, 16)
}

var shortNames = map[string]Source{
	"dp1":    DisplayPort1,
	"dp2":    DisplayPort2,
	"usbc1":  USBC1,
	"usbc2":  USBC2,
	"usbc3":  USBC3,
	"typec1": USBC1,
	"typec2": USBC2,
	"typec3": USBC3,
	"comp1":  Component1,
	"comp2":  Component2,
	"comp3":  Component3,
}

// normalize lowercases and drops separators so "USB-C 1", "usb_c1" and
// "usbc1" compare equal.
func normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
