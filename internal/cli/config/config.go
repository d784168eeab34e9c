package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/devterms/glossary/internal/glossary/export"
)

// EnvPrefix is prepended to every environment override, e.g. GLOSSARY_SOURCE
const EnvPrefix = "GLOSSARY"

// Config represents the glossary tool configuration
type Config struct {
	Source    string          `mapstructure:"source"`
	Output    string          `mapstructure:"output"`
	Export    ExportConfig    `mapstructure:"export"`
	Redirects RedirectsConfig `mapstructure:"redirects"`
	Log       LogConfig       `mapstructure:"log"`
	Watch     WatchConfig     `mapstructure:"watch"`

	// Root is the directory relative paths are resolved against. It is the
	// directory holding the config file, or the working directory.
	Root string `mapstructure:"-"`
	// File is the config file that was read, empty when defaults were used
	File string `mapstructure:"-"`
}

// ExportConfig represents artifact export configuration
type ExportConfig struct {
	MaxBytes          int    `mapstructure:"max_bytes"`
	Indent            int    `mapstructure:"indent"`
	SkipUnlessNewSlug bool   `mapstructure:"skip_unless_new_slug"`
	Published         string `mapstructure:"published"`
}

// RedirectsConfig represents redirect policy
type RedirectsConfig struct {
	RejectChains bool `mapstructure:"reject_chains"`
}

// LogConfig represents logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WatchConfig represents watch mode configuration
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Ignore   []string      `mapstructure:"ignore"`
}

// Load loads the configuration from glossary.yml or glossary.yaml in the
// project root, falling back to defaults
func Load() (*Config, error) {
	root, err := GetProjectRoot()
	if err != nil {
		if root, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	return load(root, "")
}

// LoadFile loads the configuration from an explicit file
func LoadFile(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	return load(filepath.Dir(abs), abs)
}

func load(root, file string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("source", "terms.yaml")
	v.SetDefault("output", "dist/terms.json")
	v.SetDefault("export.max_bytes", export.DefaultMaxBytes)
	v.SetDefault("export.indent", 2)
	v.SetDefault("export.skip_unless_new_slug", false)
	v.SetDefault("export.published", "")
	v.SetDefault("redirects.reject_chains", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("watch.debounce", 100*time.Millisecond)
	v.SetDefault("watch.ignore", []string{"**/.*", "**/dist/**"})

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("glossary")
		v.SetConfigType("yaml")
		v.AddConfigPath(root)
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Root = root
	config.File = v.ConfigFileUsed()

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// SourcePath returns the source document path resolved against Root
func (c *Config) SourcePath() string {
	return c.resolve(c.Source)
}

// OutputPath returns the artifact path resolved against Root
func (c *Config) OutputPath() string {
	return c.resolve(c.Output)
}

// PublishedPath returns the previously published artifact, which defaults to
// the output path
func (c *Config) PublishedPath() string {
	if c.Export.Published == "" {
		return c.OutputPath()
	}
	return c.resolve(c.Export.Published)
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Root == "" {
		return path
	}
	return filepath.Join(c.Root, path)
}

// GetProjectRoot tries to find the project root by looking for glossary.yml
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		// Check for glossary.yml or glossary.yaml
		if _, err := os.Stat(filepath.Join(dir, "glossary.yml")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "glossary.yaml")); err == nil {
			return dir, nil
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return "", fmt.Errorf("not in a glossary project (no glossary.yml found)")
		}
		dir = parent
	}
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"console", "json"}
)

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return fmt.Errorf("output must not be empty")
	}
	if cfg.Export.MaxBytes <= 0 {
		return fmt.Errorf("export.max_bytes must be positive, got: %d", cfg.Export.MaxBytes)
	}
	if cfg.Export.MaxBytes > export.DefaultMaxBytes {
		return fmt.Errorf("export.max_bytes may only lower the %d byte ceiling, got: %d", export.DefaultMaxBytes, cfg.Export.MaxBytes)
	}
	if cfg.Export.Indent < 0 {
		return fmt.Errorf("export.indent must not be negative, got: %d", cfg.Export.Indent)
	}
	if !oneOf(cfg.Log.Level, logLevels) {
		return fmt.Errorf("log.level must be one of %s, got: %s", strings.Join(logLevels, ", "), cfg.Log.Level)
	}
	if !oneOf(cfg.Log.Format, logFormats) {
		return fmt.Errorf("log.format must be one of %s, got: %s", strings.Join(logFormats, ", "), cfg.Log.Format)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got: %s", cfg.Watch.Debounce)
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
