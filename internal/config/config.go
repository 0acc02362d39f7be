// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Draft backends understood by DraftBackend.
const (
	BackendFile   = "file"
	BackendNATS   = "nats"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds all configuration values for runwiz.
type Config struct {
	DataDir              string        `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel             string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile              string        `mapstructure:"log_file" yaml:"log_file"`
	DraftBackend         string        `mapstructure:"draft_backend" yaml:"draft_backend"`
	DraftKey             string        `mapstructure:"draft_key" yaml:"draft_key"`
	PersistDelay         time.Duration `mapstructure:"persist_delay" yaml:"persist_delay"`
	ValidateDelay        time.Duration `mapstructure:"validate_delay" yaml:"validate_delay"`
	APIURL               string        `mapstructure:"api_url" yaml:"api_url"`
	APITimeout           time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	ClassificationCutoff float64       `mapstructure:"classification_cutoff" yaml:"classification_cutoff"`
	DevServerAddr        string        `mapstructure:"devserver_addr" yaml:"devserver_addr"`
	DevServerSeed        string        `mapstructure:"devserver_seed" yaml:"devserver_seed"`
}

// keys lists every config key with its default. Each one is bound to
// RUNWIZ_<KEY> explicitly so bool/number/duration parsing works from env.
var keys = []struct {
	name string
	def  any
}{
	{"data_dir", ".runwiz"},
	{"log_level", "info"},
	{"log_file", ""},
	{"draft_backend", BackendFile},
	{"draft_key", "run-wizard"},
	{"persist_delay", "500ms"},
	{"validate_delay", "500ms"},
	{"api_url", "http://127.0.0.1:8080/api"},
	{"api_timeout", "10s"},
	{"classification_cutoff", 5.0},
	{"devserver_addr", "127.0.0.1:8080"},
	{"devserver_seed", ""},
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("runwiz")

	v.SetEnvPrefix("RUNWIZ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, k := range keys {
		v.SetDefault(k.name, k.def)
		if err := v.BindEnv(k.name, "RUNWIZ_"+strings.ToUpper(k.name)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", k.name, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or env var overrides
// anything.
func Default() *Config {
	return &Config{
		DataDir:              ".runwiz",
		LogLevel:             "info",
		DraftBackend:         BackendFile,
		DraftKey:             "run-wizard",
		PersistDelay:         500 * time.Millisecond,
		ValidateDelay:        500 * time.Millisecond,
		APIURL:               "http://127.0.0.1:8080/api",
		APITimeout:           10 * time.Second,
		ClassificationCutoff: 5.0,
		DevServerAddr:        "127.0.0.1:8080",
	}
}

// Validate reports values that would leave the wizard unusable.
func (c *Config) Validate() error {
	switch c.DraftBackend {
	case BackendFile, BackendNATS, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid draft_backend %q (want file, nats, sqlite or memory)", c.DraftBackend)
	}
	if strings.TrimSpace(c.DraftKey) == "" {
		return fmt.Errorf("draft_key cannot be empty")
	}
	if c.PersistDelay < 0 || c.ValidateDelay < 0 {
		return fmt.Errorf("debounce delays must be >= 0")
	}
	return nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/runwiz/runwiz.yml or $XDG_CONFIG_HOME/runwiz/runwiz.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "runwiz", "runwiz.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "runwiz", "runwiz.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "runwiz.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(fileView(cfg))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileView renders durations as strings so the written file reads back
// through viper ("500ms" rather than 500000000).
func fileView(cfg *Config) map[string]any {
	return map[string]any{
		"data_dir":              cfg.DataDir,
		"log_level":             cfg.LogLevel,
		"log_file":              cfg.LogFile,
		"draft_backend":         cfg.DraftBackend,
		"draft_key":             cfg.DraftKey,
		"persist_delay":         cfg.PersistDelay.String(),
		"validate_delay":        cfg.ValidateDelay.String(),
		"api_url":               cfg.APIURL,
		"api_timeout":           cfg.APITimeout.String(),
		"classification_cutoff": cfg.ClassificationCutoff,
		"devserver_addr":        cfg.DevServerAddr,
		"devserver_seed":        cfg.DevServerSeed,
	}
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
