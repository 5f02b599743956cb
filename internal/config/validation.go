package config

import (
	"errors"
	"fmt"
	"time"
)

// knownFormats enumerates the doxygen output formats doxbuilder can drive.
var knownFormats = map[string]bool{
	"html": true,
	"rtf":  true,
}

// Validate checks the configuration for contradictions and unusable values.
func Validate(cfg *Config) error {
	if err := validateDocs(&cfg.Docs); err != nil {
		return err
	}
	return validateDaemon(&cfg.Daemon)
}

func validateDocs(docs *DocsConfig) error {
	if docs.ConfigPath == "" {
		return errors.New("docs.config_path cannot be empty")
	}
	if docs.Output == "" {
		return errors.New("docs.output cannot be empty")
	}
	if docs.Source == "" {
		return errors.New("docs.source cannot be empty")
	}

	seen := make(map[string]bool)
	for _, format := range docs.Formats {
		if !knownFormats[format] {
			return fmt.Errorf("unknown documentation format: %s (supported: html, rtf)", format)
		}
		if seen[format] {
			return fmt.Errorf("duplicate documentation format: %s", format)
		}
		seen[format] = true
	}
	return nil
}

func validateDaemon(daemon *DaemonConfig) error {
	if daemon.Debounce != "" {
		dur, err := time.ParseDuration(daemon.Debounce)
		if err != nil {
			return fmt.Errorf("daemon.debounce is not a duration: %q", daemon.Debounce)
		}
		if dur <= 0 {
			return errors.New("daemon.debounce must be positive")
		}
	}
	if daemon.Schedule != "" {
		dur, err := time.ParseDuration(daemon.Schedule)
		if err != nil {
			return fmt.Errorf("daemon.schedule is not a duration: %q", daemon.Schedule)
		}
		if dur < time.Minute {
			return fmt.Errorf("daemon.schedule too short: %s (minimum 1m)", daemon.Schedule)
		}
	}
	return nil
}
