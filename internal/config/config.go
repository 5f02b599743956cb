// Package config loads and validates the doxbuilder YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultRTFExcludePatterns are applied to RTF builds when the configuration
// does not override them.
var DefaultRTFExcludePatterns = []string{
	"._*", "*/.git/*", "*/tests/*", "*/unittests/*", "__init__.py",
}

// Config represents the application configuration
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Docs    DocsConfig    `yaml:"docs"`
	History HistoryConfig `yaml:"history"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// ProjectConfig identifies the documented project.
type ProjectConfig struct {
	Name string `yaml:"name"`
	// Version becomes PROJECT_NUMBER in the doxygen configuration.
	// Empty means "resolve from the most recent git tag of the source tree".
	Version string `yaml:"version,omitempty"`
}

// DocsConfig controls what doxygen consumes and produces.
type DocsConfig struct {
	ConfigPath      string   `yaml:"config_path"` // directory containing Doxyfile.in
	Output          string   `yaml:"output"`      // OUTPUT_DIRECTORY
	Source          string   `yaml:"source"`      // INPUT
	Formats         []string `yaml:"formats,omitempty"`
	ExcludePatterns []string `yaml:"exclude_patterns,omitempty"` // RTF only
	Clean           bool     `yaml:"clean"`                      // remove per-format output dirs before build
	StrictLinks     bool     `yaml:"strict_links"`               // broken local links fail HTML builds
}

// HistoryConfig controls the SQLite build history store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // empty disables history
}

// DaemonConfig controls watch mode. Durations are strings in the YAML
// ("2s", "30m") and validated at load time.
type DaemonConfig struct {
	Watch    bool       `yaml:"watch"`
	Debounce string     `yaml:"debounce,omitempty"`
	Schedule string     `yaml:"schedule,omitempty"` // empty disables periodic builds
	Listen   string     `yaml:"listen,omitempty"`   // admin/metrics HTTP; empty disables
	NATS     NATSConfig `yaml:"nats,omitempty"`
}

// DebounceDuration returns the parsed debounce window. Validation
// guarantees the value parses; a zero config falls back to 2s.
func (d *DaemonConfig) DebounceDuration() time.Duration {
	dur, err := time.ParseDuration(d.Debounce)
	if err != nil || dur <= 0 {
		return 2 * time.Second
	}
	return dur
}

// ScheduleDuration returns the parsed rebuild interval, or zero when
// periodic builds are disabled.
func (d *DaemonConfig) ScheduleDuration() time.Duration {
	if d.Schedule == "" {
		return 0
	}
	dur, err := time.ParseDuration(d.Schedule)
	if err != nil {
		return 0
	}
	return dur
}

// NATSConfig controls build event publishing.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"` // empty disables publishing
	Subject string `yaml:"subject,omitempty"`
	Stream  string `yaml:"stream,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadOrDefault loads the configuration file when present and falls back to
// built-in defaults when it does not exist. The original workflow ran
// without any configuration file at all, so a missing file is not an error
// here; Load keeps the strict behavior.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &Config{}
		cfg.applyDefaults()
		return cfg, nil
	}
	return Load(configPath)
}

func (c *Config) applyDefaults() {
	if c.Project.Name == "" {
		c.Project.Name = "Documentation"
	}
	if c.Docs.ConfigPath == "" {
		c.Docs.ConfigPath = "./docs"
	}
	if c.Docs.Output == "" {
		c.Docs.Output = "./docs"
	}
	if c.Docs.Source == "" {
		c.Docs.Source = "./"
	}
	if len(c.Docs.Formats) == 0 {
		c.Docs.Formats = []string{"html"}
	}
	if len(c.Docs.ExcludePatterns) == 0 {
		c.Docs.ExcludePatterns = append([]string(nil), DefaultRTFExcludePatterns...)
	}
	if c.Daemon.Debounce == "" {
		c.Daemon.Debounce = "2s"
	}
	if c.Daemon.NATS.URL != "" {
		if c.Daemon.NATS.Subject == "" {
			c.Daemon.NATS.Subject = "doxbuilder.builds"
		}
		if c.Daemon.NATS.Stream == "" {
			c.Daemon.NATS.Stream = "DOXBUILDER"
		}
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Project: ProjectConfig{
			Name: "TAF",
		},
		Docs: DocsConfig{
			ConfigPath: "./docs",
			Output:     "./docs",
			Source:     "./",
			Formats:    []string{"html"},
		},
		History: HistoryConfig{
			Path: "./doxbuilder.db",
		},
		Daemon: DaemonConfig{
			Watch:    true,
			Debounce: "2s",
			Listen:   ":8747",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
