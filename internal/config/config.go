package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// WorkspaceDirName is the per-project directory holding the archive and
// workspace config.
const WorkspaceDirName = ".arbor"

// Config represents arbor configuration
type Config struct {
	Core  CoreConfig  `json:"core"`
	Color ColorConfig `json:"color"`
}

// CoreConfig holds core arbor settings
type CoreConfig struct {
	Session      string `json:"session,omitempty"`  // session used when --session is not given
	IDStyle      string `json:"id_style,omitempty"` // "uuid" or "phrase"
	HistoryLimit int    `json:"history_limit"`      // max undo depth, 0 = unbounded
}

// ColorConfig holds color settings
type ColorConfig struct {
	UI bool `json:"ui"`
}

// Keys lists every settable key in display order.
var Keys = []string{"core.session", "core.id_style", "core.history_limit", "color.ui"}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{
			Session:      "main",
			IDStyle:      "uuid",
			HistoryLimit: 0,
		},
		Color: ColorConfig{
			UI: true,
		},
	}
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".arborconfig"), nil
}

// WorkspaceConfigPath returns the path to the workspace config file
func WorkspaceConfigPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, "config")
}

// LoadConfig loads the global config and then the workspace config on top of
// the defaults. Fields present in a later file override earlier ones; missing
// or unreadable files are skipped.
func LoadConfig(workspaceDir string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath, err := GlobalConfigPath(); err == nil {
		if err := overlay(cfg, globalPath); err != nil {
			return nil, err
		}
	}
	if err := overlay(cfg, WorkspaceConfigPath(workspaceDir)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

// fileSections is the on-disk shape: only keys that were explicitly set, so a
// workspace file never masks a global setting it did not name.
type fileSections map[string]map[string]json.RawMessage

func loadFile(path string) (fileSections, error) {
	sections := fileSections{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return sections, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return sections, nil
}

func saveFile(path string, sections fileSections) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Get retrieves a configuration value by key (e.g., "core.session")
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "core":
		switch field {
		case "session":
			return c.Core.Session, nil
		case "id_style":
			return c.Core.IDStyle, nil
		case "history_limit":
			return strconv.Itoa(c.Core.HistoryLimit), nil
		default:
			return "", fmt.Errorf("unknown core config field: %s", field)
		}
	case "color":
		switch field {
		case "ui":
			return strconv.FormatBool(c.Color.UI), nil
		default:
			return "", fmt.Errorf("unknown color config field: %s", field)
		}
	default:
		return "", fmt.Errorf("unknown config section: %s", section)
	}
}

// Set assigns a configuration value by key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "core":
		switch field {
		case "session":
			if value == "" {
				return fmt.Errorf("core.session cannot be empty")
			}
			c.Core.Session = value
		case "id_style":
			if value != "uuid" && value != "phrase" {
				return fmt.Errorf("core.id_style must be uuid or phrase, got %q", value)
			}
			c.Core.IDStyle = value
		case "history_limit":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return fmt.Errorf("core.history_limit must be a non-negative integer, got %q", value)
			}
			c.Core.HistoryLimit = n
		default:
			return fmt.Errorf("unknown core config field: %s", field)
		}
	case "color":
		switch field {
		case "ui":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("color.ui must be true or false, got %q", value)
			}
			c.Color.UI = b
		default:
			return fmt.Errorf("unknown color config field: %s", field)
		}
	default:
		return fmt.Errorf("unknown config section: %s", section)
	}
	return nil
}

// SetValue updates one key in the global or workspace config file.
func SetValue(workspaceDir, key, value string, global bool) error {
	path := WorkspaceConfigPath(workspaceDir)
	if global {
		var err error
		if path, err = GlobalConfigPath(); err != nil {
			return err
		}
	}

	// Validate and type the value through Set, then lift the encoded field.
	cfg := DefaultConfig()
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	var typed fileSections
	if err := json.Unmarshal(encoded, &typed); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	section, field, _ := splitKey(key)
	sections, err := loadFile(path)
	if err != nil {
		return err
	}
	if sections[section] == nil {
		sections[section] = map[string]json.RawMessage{}
	}
	sections[section][field] = typed[section][field]
	return saveFile(path, sections)
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid config key: %s (expected format: section.key)", key)
	}
	return parts[0], parts[1], nil
}
