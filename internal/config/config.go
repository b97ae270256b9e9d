package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abelbrown/roomboard/internal/movecoord"
)

// Config is the persistent application configuration
type Config struct {
	Coordination CoordinationConfig `mapstructure:"coordination"`
	Journal      JournalConfig      `mapstructure:"journal"`
	Document     DocumentConfig     `mapstructure:"document"`
	Events       EventsConfig       `mapstructure:"events"`
	UI           UIConfig           `mapstructure:"ui"`
}

// CoordinationConfig tunes cross-container move pairing
type CoordinationConfig struct {
	Window time.Duration `mapstructure:"window"`
	Policy string        `mapstructure:"policy"` // "fifo" or "lifo"
}

// JournalConfig holds the event journal location
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// DocumentConfig holds the default document location
type DocumentConfig struct {
	Path string `mapstructure:"path"`
}

// EventsConfig holds the JSONL observability log location
type EventsConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	Theme string `mapstructure:"theme"` // "dark" or "light"
}

// Dir returns ~/.roomboard.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".roomboard")
}

// ConfigPath returns the config file path. ROOMBOARD_CONFIG overrides it.
func ConfigPath() string {
	if p := os.Getenv("ROOMBOARD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.json")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Coordination: CoordinationConfig{
			Window: movecoord.DefaultWindow,
			Policy: movecoord.FIFO.String(),
		},
		Journal:  JournalConfig{Path: filepath.Join(dir, "journal.db")},
		Document: DocumentConfig{Path: filepath.Join(dir, "board.yaml")},
		Events:   EventsConfig{Path: filepath.Join(dir, "events.jsonl")},
		UI:       UIConfig{Theme: "dark"},
	}
}

func newViper() *viper.Viper {
	d := DefaultConfig()
	v := viper.New()
	v.SetDefault("coordination.window", d.Coordination.Window)
	v.SetDefault("coordination.policy", d.Coordination.Policy)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("document.path", d.Document.Path)
	v.SetDefault("events.path", d.Events.Path)
	v.SetDefault("ui.theme", d.UI.Theme)

	v.SetEnvPrefix("ROOMBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads ConfigPath. A missing file yields defaults; env vars such as
// ROOMBOARD_COORDINATION_WINDOW override both.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path.
func LoadFrom(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the engine cannot use.
func (c *Config) Validate() error {
	if c.Coordination.Window <= 0 {
		return fmt.Errorf("config: coordination.window must be positive, got %s", c.Coordination.Window)
	}
	if _, err := movecoord.ParsePolicy(c.Coordination.Policy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// MovePolicy returns the parsed coordination policy.
func (c *Config) MovePolicy() movecoord.Policy {
	p, _ := movecoord.ParsePolicy(c.Coordination.Policy)
	return p
}

// Save writes c to ConfigPath.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes c to path, creating the directory if needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("coordination.window", c.Coordination.Window.String())
	v.Set("coordination.policy", c.Coordination.Policy)
	v.Set("journal.path", c.Journal.Path)
	v.Set("document.path", c.Document.Path)
	v.Set("events.path", c.Events.Path)
	v.Set("ui.theme", c.UI.Theme)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
