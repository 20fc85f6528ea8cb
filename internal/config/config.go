package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the full tix configuration tree, decoded from config.toml.
type Config struct {
	Tracker  TrackerConfig  `toml:"tracker"`
	Database DatabaseConfig `toml:"database"`
	UI       UIConfig       `toml:"ui"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
}

// TrackerConfig selects and configures the external tracker command. When
// Command is empty, tix falls back to its local database.
type TrackerConfig struct {
	Command     string   `toml:"command"`
	Args        []string `toml:"args"`
	ListMode    string   `toml:"list_mode"`
	StatusCycle []string `toml:"status_cycle"`
	TaskTypes   []string `toml:"task_types"`
	Priorities  []string `toml:"priorities"`
}

// DatabaseConfig locates the local fallback database.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// UIConfig tunes list rendering.
type UIConfig struct {
	PreviewLines int  `toml:"preview_lines"`
	ShowPreview  bool `toml:"show_preview"`
	AltScreen    bool `toml:"alt_screen"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Bind        string `toml:"bind"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// LoggingConfig tunes the runtime logger.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// validListModes enumerates the tracker list scopes.
var validListModes = []string{"active", "open", "all"}

// Default returns the baseline configuration with the local database at dbPath.
func Default(dbPath string) Config {
	return Config{
		Tracker: TrackerConfig{
			ListMode: "active",
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		UI: UIConfig{
			PreviewLines: 7,
			ShowPreview:  true,
			AltScreen:    true,
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:8080",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load reads path over defaults. A missing or empty file yields the defaults
// unchanged.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints after decoding.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Tracker.Command) == "" && strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("either tracker.command or database.path is required")
	}

	mode := strings.TrimSpace(strings.ToLower(c.Tracker.ListMode))
	if mode != "" && !slices.Contains(validListModes, mode) {
		return fmt.Errorf("invalid tracker.list_mode: %q", c.Tracker.ListMode)
	}

	seenStatus := map[string]struct{}{}
	for idx, status := range c.Tracker.StatusCycle {
		s := strings.TrimSpace(strings.ToLower(status))
		if s == "" {
			return fmt.Errorf("tracker.status_cycle[%d] is empty", idx)
		}
		if _, ok := seenStatus[s]; ok {
			return fmt.Errorf("tracker.status_cycle[%d] is duplicated: %s", idx, s)
		}
		seenStatus[s] = struct{}{}
	}

	if c.UI.PreviewLines < 0 {
		return errors.New("ui.preview_lines must be >= 0")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

// EnsureConfigDir creates the directory holding path if needed.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
