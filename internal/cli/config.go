package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/devtoys/pkg/cache"
	"github.com/matzehuels/devtoys/pkg/codec"
	"github.com/matzehuels/devtoys/pkg/compress"
	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/pipeline"
)

// =============================================================================
// Config File
// =============================================================================

// Config is the user configuration read from config.toml. Command-line
// flags override every field.
type Config struct {
	JSON  JSONConfig  `toml:"json"`
	Image ImageConfig `toml:"image"`
}

// JSONConfig holds defaults for the transform command.
type JSONConfig struct {
	// Indent is "0".."10" or "tab". "0" makes single-line output the default
	// for the format operation.
	Indent string `toml:"indent"`
}

// ImageConfig holds defaults for the compress command.
type ImageConfig struct {
	Format       string `toml:"format"`
	Quality      int    `toml:"quality"`
	DebounceMS   int    `toml:"debounce_ms"`
	CacheEntries int    `toml:"cache_entries"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		JSON: JSONConfig{Indent: pipeline.DefaultIndent.String()},
		Image: ImageConfig{
			Format:       string(compress.DefaultParams.Format),
			Quality:      compress.DefaultQuality,
			DebounceMS:   int(compress.DefaultDebounce / time.Millisecond),
			CacheEntries: cache.DefaultMaxEntries,
		},
	}
}

// LoadConfig reads a TOML config file on top of DefaultConfig. A missing
// file is not an error. Unknown keys are rejected so typos surface early.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := c.indent(); err != nil {
		return err
	}
	if _, err := c.params(); err != nil {
		return err
	}
	if c.Image.DebounceMS < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "debounce_ms must not be negative, got %d", c.Image.DebounceMS)
	}
	if c.Image.CacheEntries < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache_entries must not be negative, got %d", c.Image.CacheEntries)
	}
	return nil
}

func (c Config) indent() (codec.Indent, error) {
	return codec.ParseIndent(c.JSON.Indent)
}

func (c Config) params() (compress.Params, error) {
	f, err := compress.ParseImageFormat(c.Image.Format)
	if err != nil {
		return compress.Params{}, err
	}
	p := compress.Params{Format: f, Quality: c.Image.Quality}
	if err := p.Validate(); err != nil {
		return compress.Params{}, err
	}
	return p, nil
}

func (c Config) debounce() time.Duration {
	return time.Duration(c.Image.DebounceMS) * time.Millisecond
}

// encode renders the config as TOML.
func (c Config) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// config Command
// =============================================================================

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())

	return cmd
}

// resolvedConfigPath is --config when given, else the XDG location.
func (c *CLI) resolvedConfigPath() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	path, err := configPath()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return path, nil
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.resolvedConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if path, err := c.resolvedConfigPath(); err == nil && !fileExists(path) {
				printInfo("No config file at %s, showing defaults", path)
			}
			data, err := cfg.encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.resolvedConfigPath()
			if err != nil {
				return err
			}
			if fileExists(path) && !force {
				printWarning("Config already exists")
				printDetail("Use --force to overwrite %s", path)
				return nil
			}

			data, err := DefaultConfig().encode()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			printSuccess("Wrote default config")
			printFile(path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
