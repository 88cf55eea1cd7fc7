package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/monitor-switch/internal/config"
	"github.com/bnema/monitor-switch/internal/ddc"
	"github.com/bnema/monitor-switch/internal/ddc/ddctest"
	"github.com/bnema/monitor-switch/internal/monitor"
	"github.com/bnema/monitor-switch/internal/setup"
	"github.com/bnema/monitor-switch/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// setupTest isolates settings and the store under a temporary home and
// points every command at an in-memory bus with two monitors
func setupTest(t *testing.T) (*ddctest.Bus, string) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	viper.Reset()
	config.Set(nil)
	config.SetConfigPath("")
	store.SetPath("")

	bus := ddctest.New(
		ddctest.Display("/dev/i2c-4", "vendorX", "111", "Desk Left"),
		ddctest.Display("/dev/i2c-5", "vendorY", "222", "Desk Right"),
	)
	bus.SetRegister("/dev/i2c-4", ddc.FeatureInputSelect, 0x11)
	bus.SetRegister("/dev/i2c-5", ddc.FeatureInputSelect, 0x0f)

	origBus, origSleep, origPrompt, origChecker := openBus, sleep, promptAlias, newChecker
	openBus = func() (ddc.Bus, error) { return bus, nil }
	sleep = func(time.Duration) {}
	t.Cleanup(func() {
		openBus, sleep, promptAlias, newChecker = origBus, origSleep, origPrompt, origChecker
		viper.Reset()
		config.Set(nil)
		config.SetConfigPath("")
		store.SetPath("")
	})

	return bus, filepath.Join(home, ".config", "monitor-switch", "config.json")
}

// resetFlags restores every flag to its default so state does not leak
// between executions of the shared command tree
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	resetFlags(root)

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestListText(t *testing.T) {
	setupTest(t)

	out, err := executeCommand(rootCmd, "list")
	require.NoError(t, err)

	for _, want := range []string{"POS", "Desk Left", "vendorX-111", "HDMI 1 (0x11)", "Desk Right", "DisplayPort 1 (0x0f)"} {
		assert.Contains(t, out, want)
	}
}

func TestListJSON(t *testing.T) {
	setupTest(t)

	out, err := executeCommand(rootCmd, "list", "--json")
	require.NoError(t, err)

	var entries []monitorEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, monitorEntry{
		Position:     1,
		ID:           "vendorY-222",
		Name:         "Desk Right",
		Model:        "Desk Right",
		Manufacturer: "vendorY",
		Bus:          "/dev/i2c-5",
		Input:        "DisplayPort 1",
		InputCode:    0x0f,
	}, entries[1])
}

func TestListYAML(t *testing.T) {
	setupTest(t)

	out, err := executeCommand(rootCmd, "list", "--yaml")
	require.NoError(t, err)

	var entries []monitorEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "vendorX-111", entries[0].ID)
	assert.Equal(t, uint16(0x11), entries[0].InputCode)
}

func TestListFormatsAreExclusive(t *testing.T) {
	setupTest(t)

	_, err := executeCommand(rootCmd, "list", "--json", "--yaml")
	assert.Error(t, err)
}

func TestListWithoutMonitors(t *testing.T) {
	bus, _ := setupTest(t)
	bus.SetDisplays()

	out, err := executeCommand(rootCmd, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No DDC/CI monitors found")
}

func TestGetAndSet(t *testing.T) {
	bus, _ := setupTest(t)

	out, err := executeCommand(rootCmd, "get", "vendorY-222")
	require.NoError(t, err)
	assert.Equal(t, "DisplayPort 1\n", out)

	out, err = executeCommand(rootCmd, "set", "1", "hdmi2")
	require.NoError(t, err)
	assert.Contains(t, out, "Desk Right")
	assert.Contains(t, out, "HDMI 2")

	value, _ := bus.Register("/dev/i2c-5", ddc.FeatureInputSelect)
	assert.Equal(t, uint16(0x12), value)

	out, err = executeCommand(rootCmd, "get", "1")
	require.NoError(t, err)
	assert.Equal(t, "HDMI 2\n", out)
}

func TestSetErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown monitor", args: []string{"set", "vendorZ-999", "hdmi1"}},
		{name: "position out of range", args: []string{"set", "5", "hdmi1"}},
		{name: "unknown input", args: []string{"set", "0", "scart"}},
		{name: "missing input", args: []string{"set", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, _ := setupTest(t)
			_, err := executeCommand(rootCmd, tt.args...)
			assert.Error(t, err)
			assert.Empty(t, bus.Writes)
		})
	}
}

func TestGetUnknownMonitor(t *testing.T) {
	setupTest(t)
	_, err := executeCommand(rootCmd, "get", "vendorZ-999")
	assert.ErrorIs(t, err, monitor.ErrNotFound)
}

func TestSetVerify(t *testing.T) {
	bus, _ := setupTest(t)

	var waited time.Duration
	sleep = func(d time.Duration) { waited = d }

	_, err := executeCommand(rootCmd, "set", "--verify", "0", "dp2")
	require.NoError(t, err)
	assert.Equal(t, time.Second, waited, "default settle delay")

	// The monitor falls back to its previous input during the delay
	sleep = func(time.Duration) {
		bus.SetRegister("/dev/i2c-4", ddc.FeatureInputSelect, 0x10)
	}
	_, err = executeCommand(rootCmd, "set", "--verify", "0", "hdmi2")
	assert.ErrorIs(t, err, ErrNotSwitched)
}

func TestInputs(t *testing.T) {
	setupTest(t)

	out, err := executeCommand(rootCmd, "inputs", "0")
	require.NoError(t, err)
	for _, want := range []string{"Desk Left", "HDMI 1", "HDMI 2", "DisplayPort 1", "DisplayPort 2", "USB-C 1", "USB-C 2", "0x11"} {
		assert.Contains(t, out, want)
	}
}

func TestAliasLifecycle(t *testing.T) {
	_, storePath := setupTest(t)

	_, err := executeCommand(rootCmd, "alias", "set", "0", "hdmi1", "Laptop")
	require.NoError(t, err)

	doc := store.LoadFrom(storePath)
	alias, ok := doc.Alias("vendorX-111", 0x11)
	require.True(t, ok)
	assert.Equal(t, "Laptop", alias)

	out, err := executeCommand(rootCmd, "get", "0")
	require.NoError(t, err)
	assert.Equal(t, "Laptop\n", out)

	// Aliases are accepted wherever an input is expected
	_, err = executeCommand(rootCmd, "set", "0", "Laptop")
	require.NoError(t, err)

	out, err = executeCommand(rootCmd, "alias", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "vendorX-111")
	assert.Contains(t, out, "Laptop")

	_, err = executeCommand(rootCmd, "alias", "remove", "vendorX-111", "hdmi1")
	require.NoError(t, err)

	out, err = executeCommand(rootCmd, "alias", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No aliases configured")
}

func TestAliasPrompt(t *testing.T) {
	_, storePath := setupTest(t)

	var prompted []string
	promptAlias = func(monitorName, inputName, current string) (string, error) {
		prompted = append(prompted, monitorName, inputName, current)
		return "Console", nil
	}

	_, err := executeCommand(rootCmd, "alias", "set", "1", "dp1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Desk Right", "DisplayPort 1", ""}, prompted)

	alias, _ := store.LoadFrom(storePath).Alias("vendorY-222", 0x0f)
	assert.Equal(t, "Console", alias)
}

func TestAliasPromptClearedRemovesAlias(t *testing.T) {
	_, storePath := setupTest(t)

	_, err := executeCommand(rootCmd, "alias", "set", "0", "hdmi1", "Laptop")
	require.NoError(t, err)

	var current string
	promptAlias = func(monitorName, inputName, cur string) (string, error) {
		current = cur
		return "", nil
	}

	_, err = executeCommand(rootCmd, "alias", "set", "0", "hdmi1")
	require.NoError(t, err)
	assert.Equal(t, "Laptop", current)

	_, ok := store.LoadFrom(storePath).Alias("vendorX-111", 0x11)
	assert.False(t, ok)

	out, err := executeCommand(rootCmd, "alias", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "HDMI 1")
}

func TestAliasForDetachedMonitor(t *testing.T) {
	bus, storePath := setupTest(t)

	_, err := executeCommand(rootCmd, "alias", "set", "vendorY-222", "hdmi1", "Laptop")
	require.NoError(t, err)

	bus.SetDisplays(ddctest.Display("/dev/i2c-4", "vendorX", "111", "Desk Left"))

	out, err := executeCommand(rootCmd, "alias", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "not attached")

	_, err = executeCommand(rootCmd, "alias", "remove", "vendorY-222", "hdmi1")
	require.NoError(t, err)
	_, ok := store.LoadFrom(storePath).Alias("vendorY-222", 0x11)
	assert.False(t, ok)

	_, err = executeCommand(rootCmd, "alias", "set", "vendorQ-000", "hdmi1", "x")
	assert.ErrorIs(t, err, monitor.ErrNotFound)
}

func TestFavoritesAndQuick(t *testing.T) {
	bus, storePath := setupTest(t)

	_, err := executeCommand(rootCmd, "favorite", "add", "1", "usbc1")
	require.NoError(t, err)
	_, err = executeCommand(rootCmd, "fav", "add", "0", "dp1")
	require.NoError(t, err)

	favorites := store.LoadFrom(storePath).ListFavorites()
	require.Len(t, favorites, 2)
	assert.Equal(t, store.Favorite{MonitorID: "vendorY-222", InputValue: 0x15}, favorites[0])

	out, err := executeCommand(rootCmd, "quick")
	require.NoError(t, err)
	assert.Contains(t, out, "1. USB-C 1 → Desk Right")
	assert.Contains(t, out, "2. DisplayPort 1 → Desk Left")

	out, err = executeCommand(rootCmd, "quick", "2")
	require.NoError(t, err)
	assert.Equal(t, "DisplayPort 1 → Desk Left\n", out)
	value, _ := bus.Register("/dev/i2c-4", ddc.FeatureInputSelect)
	assert.Equal(t, uint16(0x0f), value)

	_, err = executeCommand(rootCmd, "quick", "3")
	assert.Error(t, err)
	_, err = executeCommand(rootCmd, "quick", "zero")
	assert.Error(t, err)

	_, err = executeCommand(rootCmd, "favorite", "remove", "vendorY-222", "usbc1")
	require.NoError(t, err)
	assert.Len(t, store.LoadFrom(storePath).ListFavorites(), 1)
}

func TestFavoriteListShowsDetached(t *testing.T) {
	bus, _ := setupTest(t)

	_, err := executeCommand(rootCmd, "favorite", "add", "1", "hdmi1")
	require.NoError(t, err)
	bus.SetDisplays(ddctest.Display("/dev/i2c-4", "vendorX", "111", "Desk Left"))

	out, err := executeCommand(rootCmd, "favorite", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "vendorY-222")
	assert.Contains(t, out, "not attached")

	out, err = executeCommand(rootCmd, "quick")
	require.NoError(t, err)
	assert.Contains(t, out, "No favorites for attached monitors")
}

func TestFavoriteCommandsScanOnce(t *testing.T) {
	bus, _ := setupTest(t)

	_, err := executeCommand(rootCmd, "favorite", "add", "0", "hdmi2")
	require.NoError(t, err)

	for _, args := range [][]string{
		{"favorite", "list"},
		{"quick"},
		{"quick", "1"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			before := bus.Detects
			_, err := executeCommand(rootCmd, args...)
			require.NoError(t, err)
			assert.Equal(t, 1, bus.Detects-before)
		})
	}
}

func TestStoreLocationFromSettings(t *testing.T) {
	setupTest(t)

	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.toml")
	storePath := filepath.Join(dir, "switch.json")
	require.NoError(t, os.WriteFile(settings, []byte("[store]\npath = \""+storePath+"\"\n"), 0644))

	_, err := executeCommand(rootCmd, "--config", settings, "favorite", "add", "0", "hdmi2")
	require.NoError(t, err)

	assert.True(t, store.LoadFrom(storePath).IsFavorite("vendorX-111", 0x12))
}

func TestConfigInit(t *testing.T) {
	setupTest(t)
	configPath := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "monitor-switch", "settings.toml")

	t.Run("creates settings file when it doesn't exist", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "config", "init")
		require.NoError(t, err)
		_, err = os.Stat(configPath)
		assert.NoError(t, err)
	})

	t.Run("doesn't overwrite without force", func(t *testing.T) {
		require.NoError(t, os.WriteFile(configPath, []byte("[ddc]\nbackend = \"auto\"\n"), 0644))
		_, err := executeCommand(rootCmd, "config", "init")
		require.NoError(t, err)

		content, _ := os.ReadFile(configPath)
		assert.Equal(t, "[ddc]\nbackend = \"auto\"\n", string(content))
	})

	t.Run("overwrites with force flag", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "config", "init", "--force")
		require.NoError(t, err)

		content, _ := os.ReadFile(configPath)
		assert.Contains(t, string(content), "settle_delay_ms")
	})
}

func TestConfigShowAndPath(t *testing.T) {
	_, storePath := setupTest(t)

	out, err := executeCommand(rootCmd, "config", "path")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "settings.toml"))
	assert.Equal(t, storePath, lines[1])

	_, err = executeCommand(rootCmd, "config", "authorize", "SHA256:abc")
	require.NoError(t, err)

	out, err = executeCommand(rootCmd, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend: auto")
	assert.Contains(t, out, "SHA256:abc")

	_, err = executeCommand(rootCmd, "config", "revoke", "SHA256:abc")
	require.NoError(t, err)
	_, err = executeCommand(rootCmd, "config", "revoke", "SHA256:abc")
	assert.Error(t, err)
}

func TestAutostartCommands(t *testing.T) {
	setupTest(t)
	entry := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "autostart", "monitor-switch.desktop")

	out, err := executeCommand(rootCmd, "autostart", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")

	_, err = executeCommand(rootCmd, "autostart", "enable")
	require.NoError(t, err)
	content, err := os.ReadFile(entry)
	require.NoError(t, err)
	assert.Contains(t, string(content), " menu\n")

	out, err = executeCommand(rootCmd, "autostart", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "enabled")

	_, err = executeCommand(rootCmd, "autostart", "disable")
	require.NoError(t, err)
	_, err = os.Stat(entry)
	assert.True(t, os.IsNotExist(err))
}

func TestSetupCommand(t *testing.T) {
	tests := []struct {
		name    string
		nodes   bool
		wantErr bool
		want    string
	}{
		{name: "ready host", nodes: true, want: "Ready"},
		{name: "no i2c nodes", nodes: false, wantErr: true, want: "Next Steps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTest(t)

			root := t.TempDir()
			dev, sys := filepath.Join(root, "dev"), filepath.Join(root, "sys")
			require.NoError(t, os.MkdirAll(dev, 0755))
			require.NoError(t, os.MkdirAll(filepath.Join(sys, "module", "i2c_dev"), 0755))
			if tt.nodes {
				require.NoError(t, os.WriteFile(filepath.Join(dev, "i2c-3"), nil, 0600))
			}
			newChecker = func() *setup.Checker {
				return &setup.Checker{DdcutilPath: "/bin/sh", DevDir: dev, SysDir: sys}
			}

			out, err := executeCommand(rootCmd, "setup")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestVersion(t *testing.T) {
	setupTest(t)

	out, err := executeCommand(rootCmd, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "monitor-switch "+Version)
}
