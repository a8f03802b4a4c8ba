// Package config provides configuration management for the leapsurvey CLI.
//
// Values are layered from defaults, a leapsurvey.yaml file, LEAPSURVEY_
// environment variables and explicitly set command-line flags, in increasing
// order of precedence.
package config

import (
	"github.com/leapstack-labs/leapsurvey/internal/scenario"
)

// Config holds all CLI configuration options.
type Config struct {
	RulesDir       string              `koanf:"rules_dir"`
	StatePath      string              `koanf:"state_path"`
	Year           int                 `koanf:"year"`
	LogLevel       string              `koanf:"log_level"`
	OutputFormat   string              `koanf:"output"`
	InputVariables []string            `koanf:"input_variables"`
	UseReference   bool                `koanf:"use_reference"`
	Debug          bool                `koanf:"debug"`
	Trace          bool                `koanf:"trace"`
	Inflators      []scenario.Inflator `koanf:"inflators"`
	Weights        map[string]string   `koanf:"weights"`
	ProjectRoot    string              `koanf:"-"`
}

// ScenarioOptions maps the simulation switches onto scenario options.
func (c *Config) ScenarioOptions() scenario.Options {
	return scenario.Options{
		Debug:        c.Debug,
		UseReference: c.UseReference,
		Trace:        c.Trace,
	}
}

// Default configuration values.
const (
	DefaultRulesDir  = "rules"
	DefaultStateFile = ".leapsurvey/history.db"
	DefaultLogLevel  = "warn"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=json
)

// Output formats accepted by the output key.
var OutputFormats = []string{"auto", "text", "json", "yaml"}

// ConfigFileNames are searched in order in the project root.
var ConfigFileNames = []string{"leapsurvey.yaml", "leapsurvey.yml"}
