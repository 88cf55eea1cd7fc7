// Package autostart manages the XDG autostart entry that opens the switch
// menu at login.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
)

const fileName = "monitor-switch.desktop"

const entryTemplate = `[Desktop Entry]
Type=Application
Name=Monitor Switch
Exec=%s menu
Icon=video-display
Comment=Switch monitor inputs
Categories=Utility;
Terminal=true
StartupNotify=false
`

// Path returns the desktop entry location under $XDG_CONFIG_HOME/autostart,
// falling back to ~/.config/autostart.
func Path() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate config directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "autostart", fileName), nil
}

// Entry renders the desktop entry for the given executable.
func Entry(executable string) string {
	if executable == "" {
		executable = "monitor-switch"
	}
	return fmt.Sprintf(entryTemplate, executable)
}

// IsEnabled reports whether the entry file exists.
func IsEnabled() bool {
	path, err := Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Enable writes the entry, creating the autostart directory if needed.
func Enable() error {
	path, err := Path()
	if err != nil {
		return err
	}

	executable := "monitor-switch"
	if exe, err := os.Executable(); err == nil {
		executable = exe
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create autostart directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Entry(executable)), 0644); err != nil {
		return fmt.Errorf("failed to write autostart entry: %w", err)
	}
	return nil
}

// Disable removes the entry. A missing entry is not an error.
func Disable() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove autostart entry: %w", err)
	}
	return nil
}
