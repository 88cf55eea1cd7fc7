package ddc

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bnema/monitor-switch/internal/logger"
)

// runner executes a command and returns its standard output.
type runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return output, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return output, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return output, nil
}

// ddcutilBackend drives the ddcutil command line tool.
type ddcutilBackend struct {
	path      string
	extraArgs []string
	run       runner
}

func newDdcutilBackend(opts Options) (Bus, error) {
	path := opts.DdcutilPath
	if path == "" {
		path = "ddcutil"
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("ddcutil not found. Please install ddcutil: https://www.ddcutil.com")
	}

	return &ddcutilBackend{
		path:      resolved,
		extraArgs: opts.ExtraArgs,
		run:       execRunner,
	}, nil
}

func (b *ddcutilBackend) Name() string {
	return "ddcutil"
}

func (b *ddcutilBackend) command(args ...string) ([]byte, error) {
	full := append(append([]string{}, b.extraArgs...), args...)
	logger.Debugf("ddcutil %s", strings.Join(full, " "))
	return b.run(b.path, full...)
}

func (b *ddcutilBackend) Detect() ([]Display, error) {
	output, err := b.command("detect")
	if err != nil {
		return nil, err
	}
	return parseDetect(output), nil
}

func (b *ddcutilBackend) GetVCP(d Display, feature byte) (uint16, error) {
	bus, err := busNumber(d.Bus)
	if err != nil {
		return 0, err
	}

	output, err := b.command("--bus", bus, "getvcp", fmt.Sprintf("%02x", feature), "--brief")
	if err != nil {
		return 0, err
	}
	return parseGetVCP(output, feature)
}

func (b *ddcutilBackend) SetVCP(d Display, feature byte, value uint16) error {
	bus, err := busNumber(d.Bus)
	if err != nil {
		return err
	}

	_, err = b.command("--bus", bus, "setvcp", fmt.Sprintf("%02x", feature), fmt.Sprintf("0x%02x", value), "--noverify")
	return err
}

func (b *ddcutilBackend) Capabilities(d Display) (string, error) {
	bus, err := busNumber(d.Bus)
	if err != nil {
		return "", err
	}

	output, err := b.command("--bus", bus, "capabilities", "--brief")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (b *ddcutilBackend) Close() error {
	return nil
}

// busNumber turns "/dev/i2c-4" or "i2c-4" into "4".
func busNumber(bus string) (string, error) {
	base := filepath.Base(bus)
	number := strings.TrimPrefix(base, "i2c-")
	if _, err := strconv.Atoi(number); err != nil || number == "" {
		return "", fmt.Errorf("invalid i2c bus %q", bus)
	}
	return number, nil
}

// parseDetect parses the text output of `ddcutil detect`. Blocks headed
// "Invalid display" or "Phantom display" are skipped.
//
//	Display 1
//	   I2C bus:  /dev/i2c-4
//	   EDID synopsis:
//	      Mfg id:               DEL - Dell Inc.
//	      Model:                DELL U2720Q
//	      Product code:         41240  (0xa118)
//	      Serial number:        ABC1234
//	      Binary serial number: 808464432 (0x30303030)
func parseDetect(output []byte) []Display {
	var displays []Display
	var current *Display
	var productCode string

	flush := func() {
		if current == nil {
			return
		}
		current.ID = displayID(current, productCode)
		displays = append(displays, *current)
		current = nil
		productCode = ""
	}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") && trimmed != "" {
			flush()
			if strings.HasPrefix(trimmed, "Display ") {
				current = &Display{}
			}
			continue
		}

		if current == nil {
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "I2C bus":
			current.Bus = value
		case "Mfg id":
			mfg, _, _ := strings.Cut(value, " - ")
			current.ManufacturerID = strings.TrimSpace(mfg)
		case "Model":
			current.ModelName = value
		case "Product code":
			code, _, _ := strings.Cut(value, " ")
			productCode = code
		case "Serial number":
			current.SerialNumber = value
		case "Binary serial number":
			raw, _, _ := strings.Cut(value, " ")
			if serial, err := strconv.ParseUint(raw, 10, 32); err == nil && serial != 0 {
				current.Serial = uint32(serial)
				current.HasSerial = true
			}
		}
	}
	flush()

	return displays
}

// displayID prefers the EDID vendor and product code and falls back to the
// bus name.
func displayID(d *Display, productCode string) string {
	if d.ManufacturerID != "" && productCode != "" {
		return d.ManufacturerID + "-" + productCode
	}
	if d.ManufacturerID != "" {
		return d.ManufacturerID
	}
	return filepath.Base(d.Bus)
}

// parseGetVCP parses `ddcutil getvcp --brief` output such as "VCP 60 SNC x0f".
func parseGetVCP(output []byte, feature byte) (uint16, error) {
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != "VCP" {
			continue
		}
		if !strings.EqualFold(fields[1], fmt.Sprintf("%02x", feature)) {
			continue
		}
		if fields[2] == "ERR" {
			return 0, fmt.Errorf("feature %02x: read error", feature)
		}
		if len(fields) < 4 {
			return 0, fmt.Errorf("feature %02x: unexpected reply %q", feature, line)
		}

		raw := strings.TrimPrefix(fields[len(fields)-1], "x")
		value, err := strconv.ParseUint(raw, 16, 16)
		if err != nil {
			return 0, fmt.Errorf("feature %02x: bad value %q: %w", feature, fields[len(fields)-1], err)
		}
		return uint16(value), nil
	}

	return 0, fmt.Errorf("feature %02x: no reply", feature)
}
