// Package config loads agentview.yml, the configuration shared by the
// resolution engine and its CLI. All fields have working defaults so the
// engine runs with no config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/agentview/core/errors"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

const (
	// DefaultFreshnessTTL is how long an uncorroborated record is trusted.
	DefaultFreshnessTTL = 30 * time.Second
	// DefaultPollInterval is the reference host poll cadence.
	DefaultPollInterval = time.Second
)

// Config holds the engine's settings. The external hook writer owns the
// files the paths point at; this side only reads them.
type Config struct {
	// StateFile is the JSON document of session records.
	StateFile string `yaml:"state_file"`

	// LockRoot is the directory of per-project lock directories.
	LockRoot string `yaml:"lock_root"`

	// AuditLog is the append-only hook event log (JSON lines).
	AuditLog string `yaml:"audit_log"`

	// FreshnessTTL is a duration string (e.g. "30s"). See FreshnessTTL().
	FreshnessTTLRaw string `yaml:"freshness_ttl"`

	// PollIntervalRaw is a duration string (e.g. "1s"). See PollInterval().
	PollIntervalRaw string `yaml:"poll_interval"`

	// Ignore lists glob patterns for paths that never resolve to a session
	// (scratch checkouts, trash directories, and the like).
	Ignore []string `yaml:"ignore"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline"`
}

// Default returns a config pointing at the conventional hook-writer
// locations under the user's home directory.
func Default() *Config {
	base := baseDir()
	return &Config{
		StateFile: filepath.Join(base, "state.json"),
		LockRoot:  filepath.Join(base, "locks"),
		AuditLog:  filepath.Join(base, "events.jsonl"),
	}
}

func baseDir() string {
	if dir := os.Getenv("AGENTVIEW_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentview"
	}
	return filepath.Join(home, ".agentview")
}

// FreshnessTTL parses the configured TTL, falling back to the default on
// absence or a malformed value.
func (c *Config) FreshnessTTL() time.Duration {
	return parseDuration(c.FreshnessTTLRaw, DefaultFreshnessTTL)
}

// PollInterval parses the configured poll interval, falling back to the
// default on absence or a malformed value.
func (c *Config) PollInterval() time.Duration {
	return parseDuration(c.PollIntervalRaw, DefaultPollInterval)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// UnmarshalExtension decodes a tool-specific extension section into target.
// It is not an error if the key doesn't exist; target simply stays
// zero-valued.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}

// Load reads and parses a configuration file, layering it over defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg := Default()
	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config file").
			WithDetail("path", path)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadDefault finds and loads the configuration, searching from the current
// directory upward and then the XDG config location. A missing config file
// is not an error; defaults are returned.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}
	return LoadFrom(cwd)
}

// LoadFrom loads configuration searching upward from startDir.
func LoadFrom(startDir string) (*Config, error) {
	path, err := FindConfigFile(startDir)
	if err != nil {
		cfg := Default()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return Load(path)
}

// FindConfigFile locates agentview.yml by walking up from startDir, then
// checking the XDG config directory.
func FindConfigFile(startDir string) (string, error) {
	configNames := []string{
		"agentview.yml",
		"agentview.yaml",
		".agentview.yml",
		".agentview.yaml",
	}

	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if xdgPath := getXDGConfigPath(); xdgPath != "" {
		if info, err := os.Stat(xdgPath); err == nil && !info.IsDir() {
			return xdgPath, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

func getXDGConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agentview", "agentview.yml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "agentview", "agentview.yml")
}

// applyEnvOverrides lets the environment win over file values, which keeps
// tests and one-off invocations from needing a config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AGENTVIEW_STATE_FILE"); v != "" {
		cfg.StateFile = v
	}
	if v := os.Getenv("AGENTVIEW_LOCK_ROOT"); v != "" {
		cfg.LockRoot = v
	}
	if v := os.Getenv("AGENTVIEW_AUDIT_LOG"); v != "" {
		cfg.AuditLog = v
	}
	if v := os.Getenv("AGENTVIEW_FRESHNESS_TTL"); v != "" {
		cfg.FreshnessTTLRaw = v
	}
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		name := parts[0]

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if len(parts) == 2 {
			return parts[1]
		}
		return ""
	})
}
