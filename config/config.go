// Package config provides YAML configuration parsing for DefconBoard.
//
// This package enables running DefconBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: DEFCON Board
//	port: 8080
//	poll_interval: 5m
//	timeout: 10s
//	source_url: ${DEFCON_SOURCE_URL:-https://www.defconlevel.com/raised-levels}
//	log_level: info
//
//	level: default
//
//	commands:
//	  - id: SPACECOM
//	    url: https://www.defconlevel.com/alerts/space-command
//	    aliases: ["Space Command"]
//
// When commands is omitted the built-in eight are tracked.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// minPollInterval prevents hammering the source site.
	minPollInterval = 1 * time.Second

	minTimeout = 1 * time.Second
	maxTimeout = 60 * time.Second

	defaultPort         = 8080
	defaultPollInterval = 5 * time.Minute
	defaultTimeout      = 10 * time.Second
	defaultSourceURL    = "https://www.defconlevel.com/raised-levels"
	defaultLogLevel     = "info"
)

// Config is the root configuration structure for DefconBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "DEFCON Board" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the time between refresh cycles. Defaults to 5m.
	PollInterval Duration `yaml:"poll_interval"`

	// Timeout bounds a single fetch of the source page. Defaults to 10s.
	// Must be between 1s and 60s.
	Timeout Duration `yaml:"timeout"`

	// SourceURL is the aggregate raised-levels page.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	SourceURL string `yaml:"source_url"`

	// UserAgent overrides the User-Agent sent to the source site.
	UserAgent string `yaml:"user_agent"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// Tracing enables OpenTelemetry span export to stderr.
	Tracing bool `yaml:"tracing"`

	// Level selects how the DEFCON level is read from the page.
	Level LevelConfig `yaml:"level"`

	// Commands replaces the built-in command set when non-empty.
	Commands []CommandConfig `yaml:"commands"`
}

// CommandConfig defines one tracked command.
type CommandConfig struct {
	// ID is the command identifier and its primary keyword, e.g. STRATCOM.
	ID string `yaml:"id"`

	// URL is the command's alert page.
	// Supports environment variable substitution.
	URL string `yaml:"url"`

	// Aliases are extra phrases that count as the command being raised.
	Aliases []string `yaml:"aliases"`
}

// LevelConfig specifies how the DEFCON level is extracted.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	level: default
//	level: regex:data-level="(\d)"
//
// Structured object:
//
//	level:
//	  type: regex
//	  pattern: 'data-level="(\d)"'
//	  fallback: true
type LevelConfig struct {
	// Type is "default" or "regex". Empty means default.
	Type string

	// Pattern is the regular expression for type regex. Its first capture
	// group must hold the level.
	Pattern string

	// Fallback keeps the default heuristic as a second attempt when the
	// regex does not match or captures a level outside 1-5.
	Fallback bool
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for LevelConfig.
func (l *LevelConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return l.parseShorthand(s)

	case yaml.MappingNode:
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type     string `yaml:"type"`
			Pattern  string `yaml:"pattern"`
			Fallback bool   `yaml:"fallback"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		l.Type = raw.Type
		l.Pattern = raw.Pattern
		l.Fallback = raw.Fallback
		return nil
	}

	return fmt.Errorf("level must be a string or object, got %v", node.Kind)
}

// parseShorthand parses "default" or "regex:<pattern>".
func (l *LevelConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "regex:") {
		l.Type = "regex"
		l.Pattern = strings.TrimPrefix(s, "regex:")
		return nil
	}

	if s == "default" {
		l.Type = s
		return nil
	}
	return fmt.Errorf("unknown level extractor %q (expected 'default' or 'regex:pattern')", s)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if exists {
			return value
		}
		if hasDefault {
			return submatches[3]
		}
		firstErr = fmt.Errorf("environment variable %q is not set", varName)
		return match
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Defaults are applied for Port (8080), PollInterval (5m), Timeout (10s),
// SourceURL and LogLevel (info). Environment variables are expanded in
// source_url and every command url.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = Duration(defaultTimeout)
	}
	if cfg.SourceURL == "" {
		cfg.SourceURL = defaultSourceURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}

	if c.Timeout.Duration() < minTimeout || c.Timeout.Duration() > maxTimeout {
		return fmt.Errorf("timeout must be between %s and %s, got %s", minTimeout, maxTimeout, c.Timeout.Duration())
	}

	expanded, err := expandEnvVars(c.SourceURL)
	if err != nil {
		return fmt.Errorf("source_url: %w", err)
	}
	c.SourceURL = expanded
	if err := validateURL(c.SourceURL); err != nil {
		return fmt.Errorf("source_url: %w", err)
	}

	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if err := c.Level.validate(); err != nil {
		return err
	}

	seen := make(map[string]int, len(c.Commands))
	for i := range c.Commands {
		cmd := &c.Commands[i]

		if cmd.ID == "" {
			return fmt.Errorf("commands[%d]: id is required", i)
		}
		if strings.ContainsAny(cmd.ID, " \t\r\n") {
			return fmt.Errorf("commands[%d] (%s): id cannot contain whitespace", i, cmd.ID)
		}
		if prev, dup := seen[cmd.ID]; dup {
			return fmt.Errorf("commands[%d] (%s): duplicate id, first defined at commands[%d]", i, cmd.ID, prev)
		}
		seen[cmd.ID] = i

		if cmd.URL == "" {
			return fmt.Errorf("commands[%d] (%s): url is required", i, cmd.ID)
		}
		expanded, err := expandEnvVars(cmd.URL)
		if err != nil {
			return fmt.Errorf("commands[%d] (%s): url: %w", i, cmd.ID, err)
		}
		cmd.URL = expanded
		if err := validateURL(cmd.URL); err != nil {
			return fmt.Errorf("commands[%d] (%s): %w", i, cmd.ID, err)
		}

		for j, alias := range cmd.Aliases {
			if strings.TrimSpace(alias) == "" {
				return fmt.Errorf("commands[%d] (%s): aliases[%d] cannot be empty", i, cmd.ID, j)
			}
		}
	}

	return nil
}

// validate checks the level extractor configuration.
func (l LevelConfig) validate() error {
	switch l.Type {
	case "", "default":
		return nil
	case "regex":
		if l.Pattern == "" {
			return fmt.Errorf("level: type 'regex' requires a pattern")
		}
		re, err := regexp.Compile(l.Pattern)
		if err != nil {
			return fmt.Errorf("level: invalid pattern: %w", err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("level: pattern must contain a capture group")
		}
		return nil
	default:
		return fmt.Errorf("level: unknown type %q", l.Type)
	}
}

// validateURL checks that raw is an absolute http(s) URL.
func validateURL(raw string) error {
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("url must have a host")
	}
	return nil
}

// SlogLevel returns LogLevel as a slog.Level. Parse has already validated it.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
	}
}
