// Package store persists per-monitor input aliases and favorites in a
// single JSON document.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/monitor-switch/internal/inputsource"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/tidwall/jsonc"
)

// ErrConfigIO wraps every failure to write the document.
var ErrConfigIO = errors.New("config I/O error")

// Config is the root document.
type Config struct {
	Monitors  map[string]*MonitorConfig `json:"monitors"`
	Favorites []Favorite                `json:"favorites"`

	path string
}

// MonitorConfig holds the settings of one monitor identity.
type MonitorConfig struct {
	InputAliases map[uint16]string `json:"input_aliases"`
}

// Favorite is a monitor identity and input code pair.
type Favorite struct {
	MonitorID  string `json:"monitor_id"`
	InputValue uint16 `json:"input_value"`
}

// Input decodes the favorite's input code.
func (f Favorite) Input() inputsource.Source {
	return inputsource.Decode(f.InputValue)
}

// Override config path if set
var pathOverride string

// SetPath overrides the document location. An empty path restores the
// default.
func SetPath(path string) {
	pathOverride = path
}

// DefaultPath returns ~/.config/monitor-switch/config.json, or the
// override set with SetPath.
func DefaultPath() string {
	if pathOverride != "" {
		return pathOverride
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "monitor-switch", "config.json")
	}
	return filepath.Join(home, ".config", "monitor-switch", "config.json")
}

// New returns an empty document bound to path.
func New(path string) *Config {
	return &Config{
		Monitors:  make(map[string]*MonitorConfig),
		Favorites: []Favorite{},
		path:      path,
	}
}

// Load reads the document from DefaultPath.
func Load() *Config {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the document at path. A missing, unreadable or malformed
// file yields an empty document; no error is reported.
func LoadFrom(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debugf("config %s unreadable, using defaults: %v", path, err)
		}
		return New(path)
	}

	cfg := New(path)
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		logger.Debugf("config %s malformed, using defaults: %v", path, err)
		return New(path)
	}
	cfg.normalize()

	return cfg
}

// normalize replaces null collections with empty ones.
func (c *Config) normalize() {
	if c.Monitors == nil {
		c.Monitors = make(map[string]*MonitorConfig)
	}
	for id, m := range c.Monitors {
		if m == nil {
			m = &MonitorConfig{}
			c.Monitors[id] = m
		}
		if m.InputAliases == nil {
			m.InputAliases = make(map[uint16]string)
		}
	}
	if c.Favorites == nil {
		c.Favorites = []Favorite{}
	}
}

// Path is where the document was loaded from and will be saved to.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Save writes the whole document to Path. The file is overwritten in place,
// so a crash mid-write leaves a file that Load treats as empty.
func (c *Config) Save() error {
	return c.SaveTo(c.Path())
}

// SaveTo writes the whole document to path and rebinds the config to it.
func (c *Config) SaveTo(path string) error {
	c.normalize()

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("%w: failed to create config directory: %w", ErrConfigIO, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode config: %w", ErrConfigIO, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write config: %w", ErrConfigIO, err)
	}

	c.path = path
	logger.Debugf("config saved to %s", path)
	return nil
}

// Alias returns the alias for an input of a monitor.
func (c *Config) Alias(monitorID string, input uint16) (string, bool) {
	m, ok := c.Monitors[monitorID]
	if !ok || m == nil {
		return "", false
	}
	alias, ok := m.InputAliases[input]
	return alias, ok
}

// SetAlias stores alias verbatim, including the empty string. Callers that
// treat an empty alias as "no alias" should call RemoveAlias instead.
func (c *Config) SetAlias(monitorID string, input uint16, alias string) {
	if c.Monitors == nil {
		c.Monitors = make(map[string]*MonitorConfig)
	}
	m, ok := c.Monitors[monitorID]
	if !ok || m == nil {
		m = &MonitorConfig{}
		c.Monitors[monitorID] = m
	}
	if m.InputAliases == nil {
		m.InputAliases = make(map[uint16]string)
	}
	m.InputAliases[input] = alias
}

// RemoveAlias deletes the alias, if any.
func (c *Config) RemoveAlias(monitorID string, input uint16) {
	if m, ok := c.Monitors[monitorID]; ok && m != nil {
		delete(m.InputAliases, input)
	}
}

// DisplayName returns the alias of an input, or its standard name when no
// non-empty alias is set.
func (c *Config) DisplayName(monitorID string, source inputsource.Source) string {
	if alias, ok := c.Alias(monitorID, inputsource.Encode(source)); ok && alias != "" {
		return alias
	}
	return inputsource.Name(source)
}

func (c *Config) IsFavorite(monitorID string, input uint16) bool {
	for _, f := range c.Favorites {
		if f.MonitorID == monitorID && f.InputValue == input {
			return true
		}
	}
	return false
}

// AddFavorite appends the pair unless it is already present.
func (c *Config) AddFavorite(monitorID string, input uint16) {
	if c.IsFavorite(monitorID, input) {
		return
	}
	c.Favorites = append(c.Favorites, Favorite{MonitorID: monitorID, InputValue: input})
}

// RemoveFavorite drops the pair. Removing a pair that is not a favorite
// does nothing.
func (c *Config) RemoveFavorite(monitorID string, input uint16) {
	kept := c.Favorites[:0]
	for _, f := range c.Favorites {
		if f.MonitorID == monitorID && f.InputValue == input {
			continue
		}
		kept = append(kept, f)
	}
	c.Favorites = kept
}

// ListFavorites returns a copy of the favorites in insertion order.
func (c *Config) ListFavorites() []Favorite {
	return append([]Favorite{}, c.Favorites...)
}
