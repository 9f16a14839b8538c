package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/devtoys/pkg/cache"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "devtoys"

	// configFileName is the name of the TOML config inside the config dir.
	configFileName = "config.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides the default config location (--config).
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist.
func (c *CLI) loadConfig() (Config, error) {
	path := c.configPath
	if path == "" {
		p, err := configPath()
		if err != nil {
			c.Logger.Debug("no config directory, using defaults", "error", err)
			return DefaultConfig(), nil
		}
		path = p
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return Config{}, err
	}
	c.Logger.Debug("config loaded", "path", path)
	return cfg, nil
}

// newCache returns the in-process encode cache for a compress run.
func newCache(entries int, disabled bool) cache.Cache {
	if disabled || entries <= 0 {
		return cache.NewNullCache()
	}
	return cache.NewMemoryCache(entries)
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/devtoys/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// configPath returns the default config file path.
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}
