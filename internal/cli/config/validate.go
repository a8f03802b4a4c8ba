package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// ParseLogLevel parses debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: want debug, info, warn or error", s)
	}
	return level, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.RulesDir == "" {
		return fmt.Errorf("rules_dir is required")
	}
	if c.Year < 0 {
		return fmt.Errorf("year must not be negative, got %d", c.Year)
	}
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output %q: want one of %s", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	for i, inf := range c.Inflators {
		if inf.Variable == "" {
			return fmt.Errorf("inflators[%d]: variable is required", i)
		}
	}
	for entity, variable := range c.Weights {
		if variable == "" {
			return fmt.Errorf("weights.%s: variable is required", entity)
		}
	}
	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.RulesDir); os.IsNotExist(err) {
		return fmt.Errorf("rules directory does not exist: %s\nHint: Create the directory or use --rules to specify a different path", c.RulesDir)
	}
	return nil
}
