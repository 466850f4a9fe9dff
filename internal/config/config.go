// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variables read by FromEnv
const (
	EnvAPIBaseURL  = "PORTFOLIO_API_BASE_URL"
	EnvUserID      = "PORTFOLIO_USER_ID"
	EnvSessionFile = "PORTFOLIO_SESSION_FILE"
)

// DefaultTimeoutSeconds is used when no timeout is configured.
const DefaultTimeoutSeconds = 30

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional in the file; missing values come from the environment,
// CLI flags or defaults.
type Config struct {
	APIBaseURL     string `json:"api_base_url,omitempty" validate:"required,url"` // Backend base URL, without the /v1 prefix
	UserID         string `json:"user_id,omitempty"`                              // Portfolio owner for public reads
	SessionFile    string `json:"session_file,omitempty"`                         // Where tokens are kept between runs
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" validate:"gte=0"`     // HTTP timeout
	Verbose        bool   `json:"verbose,omitempty"`                              // Print detailed debug information
	SchemaPath     string `json:"schema_path,omitempty"`                          // Optional schema overriding the bundled one
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv returns the configuration found in the environment.
func FromEnv() Config {
	return Config{
		APIBaseURL:  strings.TrimSpace(os.Getenv(EnvAPIBaseURL)),
		UserID:      strings.TrimSpace(os.Getenv(EnvUserID)),
		SessionFile: strings.TrimSpace(os.Getenv(EnvSessionFile)),
	}
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	cfg := Config{TimeoutSeconds: DefaultTimeoutSeconds}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.SessionFile = filepath.Join(home, ".omas-portfolio", "session.json")
	}
	return cfg
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("config error: %s", describe(fieldErrs[0]))
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.SessionFile == "" {
		return fmt.Errorf("config error: 'session_file' is required")
	}

	if c.SchemaPath != "" {
		if _, err := os.Stat(c.SchemaPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: schema file not found: %s", c.SchemaPath)
		}
	}

	return nil
}

func describe(fe validator.FieldError) string {
	name := map[string]string{
		"APIBaseURL":     "api_base_url",
		"TimeoutSeconds": "timeout_seconds",
	}[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required (set it in the config file or %s)", name, EnvAPIBaseURL)
	case "url":
		return fmt.Sprintf("'%s' must be an absolute URL", name)
	case "gte":
		return fmt.Sprintf("'%s' must be non-negative", name)
	default:
		return fmt.Sprintf("'%s' failed %s validation", name, fe.Tag())
	}
}

// Timeout returns TimeoutSeconds as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Chain it from the highest precedence source down, e.g.
// env.MergeWithDefaults(file).MergeWithDefaults(Defaults()).
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIBaseURL == "" {
		result.APIBaseURL = defaults.APIBaseURL
	}
	if result.UserID == "" {
		result.UserID = defaults.UserID
	}
	if result.SessionFile == "" {
		result.SessionFile = defaults.SessionFile
	}
	if result.SchemaPath == "" {
		result.SchemaPath = defaults.SchemaPath
	}

	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Resolve builds the effective configuration from the environment, the config
// file at path (skipped when path is empty) and the defaults, in that order of
// precedence. CLI flags are applied on top by the caller.
func Resolve(path string) (Config, error) {
	var file Config
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		file = *loaded
	}

	env := FromEnv()
	merged := env.MergeWithDefaults(file)
	merged.Verbose = file.Verbose
	return merged.MergeWithDefaults(Defaults()), nil
}
