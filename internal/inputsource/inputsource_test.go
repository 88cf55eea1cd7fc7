package inputsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	for code := uint16(0x01); code <= 0x17; code++ {
		decoded := Decode(code)
		require.True(t, decoded.Known(), "code %#x should be known", code)
		assert.Equal(t, decoded, Decode(Encode(decoded)), "code %#x", code)
		assert.Equal(t, code, Encode(decoded))
	}
}

func TestUnknownCollapse(t *testing.T) {
	assert.Equal(t, Unknown, Decode(0xFF))
	assert.Equal(t, uint16(0xFF), Encode(Unknown))

	for _, code := range []uint16{0x00, 0x18, 0x1B, 0x60, 0xFE, 0x100, 0x111, 0xFFFF} {
		t.Run(Name(Decode(code)), func(t *testing.T) {
			decoded := Decode(code)
			assert.Equal(t, Unknown, decoded)
			reencoded := Encode(decoded)
			assert.Equal(t, uint16(0xFF), reencoded)
			assert.NotEqual(t, code, reencoded)
		})
	}
}

func TestEncodeOutOfTableValue(t *testing.T) {
	// A Source built by conversion rather than Decode still encodes as the sentinel.
	assert.Equal(t, uint16(0xFF), Encode(Source(0x42)))
	assert.Equal(t, "Unknown", Name(Source(0x42)))
}

func TestNames(t *testing.T) {
	tests := []struct {
		source Source
		want   string
	}{
		{HDMI1, "HDMI 1"},
		{DisplayPort2, "DisplayPort 2"},
		{USBC1, "USB-C 1"},
		{SVideo2, "S-Video 2"},
		{Composite1, "Composite 1"},
		{Unknown, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.source))
			assert.Equal(t, tt.want, tt.source.String())
		})
	}

	for _, s := range All() {
		assert.NotEqual(t, "Unknown", Name(s), "known source %#x has no name", uint16(s))
	}
}

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, 23)
	assert.Equal(t, VGA1, all[0])
	assert.Equal(t, USBC3, all[len(all)-1])
	assert.NotContains(t, all, Unknown)
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Source
	}{
		{"HDMI 1", HDMI1},
		{"hdmi2", HDMI2},
		{"HDMI-3", HDMI3},
		{"DisplayPort 1", DisplayPort1},
		{"dp2", DisplayPort2},
		{"USB-C 1", USBC1},
		{"usbc2", USBC2},
		{"usb_c3", USBC3},
		{"17", HDMI1},
		{"0x0f", DisplayPort1},
		{"0X11", HDMI1},
		{"017", HDMI1},
		{"015", DisplayPort1},
		{"s-video 1", SVideo1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, input := range []string{"", "  ", "hdmi9", "0xff", "255", "0x", "0b10001", "unknown", "thunderbolt"} {
		t.Run(input, func(t *testing.T) {
			got, err := Parse(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnknownInput)
			assert.Equal(t, Unknown, got)
		})
	}
}
